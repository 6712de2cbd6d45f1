package tests

import (
	"os"
	"testing"

	"github.com/awaizkhanmd/Automation/internal/repositories"
	log "github.com/sirupsen/logrus"
)

var dbCtx *repositories.DbContext

func upEnvironment() {

	var err error
	dbCtx, err = repositories.NewDbContext("testdatabase.db")
	if err != nil {
		log.Fatalf("could not create db context: %s", err)
	}

	err = dbCtx.Migrate()
	if err != nil {
		log.Fatalf("could not migrate db: %s", err)
	}
}

func downEnvironment() {
	_ = dbCtx.Close()
	_ = os.Remove("testdatabase.db")
}

func TestMain(m *testing.M) {

	upEnvironment()

	code := m.Run()

	downEnvironment()

	os.Exit(code)
}
