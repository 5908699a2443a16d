package inmemdb

import (
	"sync"

	"github.com/projetodesenvolve/orcamento/core/recipient"
)

type (
	DB struct {
		recipient *recipientTable
	}

	recipientTable struct {
		mutex sync.RWMutex
		pkSeq int
		table map[int]*recipient.Recipient
	}
)

func Open() *DB {
	return &DB{
		recipient: &recipientTable{table: make(map[int]*recipient.Recipient)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.recipient.mutex.Lock()
	defer db.recipient.mutex.Unlock()
	db.recipient.table = make(map[int]*recipient.Recipient)
	db.recipient.pkSeq = 0
}
