package db

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
)

// OpenBadger opens (or creates) the embedded badger store at path.
// An empty path opens an in-memory store, used in tests.
func OpenBadger(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger [%s]: %w", path, err)
	}

	log.Debugf("badger store opened: [%s]", path)
	return bdb, nil
}
