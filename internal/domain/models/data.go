package models

// ArbitraryData stores opaque blobs by id, used for resumable attempt
// progress snapshots.
type ArbitraryData struct {
	ID    string `gorm:"primaryKey"`
	Value []byte
}
