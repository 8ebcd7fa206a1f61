package interfaces

import (
	"github.com/Nathan-Furnal/blog/pkg/storage"
)

// StorageProvider aliases pkg/storage.Provider so callers that only consume
// the interfaces package keep a single import for every runtime contract.
type StorageProvider = storage.Provider

// Rows aliases storage.Rows.
type Rows = storage.Rows

// Result aliases storage.Result.
type Result = storage.Result

// Transaction aliases storage.Transaction.
type Transaction = storage.Transaction
