package filestore

import (
	"testing"

	"github.com/ontrack-io/ontrack/internal/store/storetest"
)

func TestStoreSuite(t *testing.T) {
	storetest.Run(t, newStore(t))
}
