package memory

// Store bundles the repositories that share one DB.
type Store struct {
	DB        *DB
	TxManager *TxManager
	Events    *EventStore
	Outbox    *OutboxRepository
	Balances  *BalanceRepository
	Clients   *ClientRepository
	Locker    *AccountLocker
}

// NewStore creates an empty store with all repositories wired to it.
func NewStore() *Store {
	db := NewDB()
	return &Store{
		DB:        db,
		TxManager: NewTxManager(db),
		Events:    NewEventStore(db),
		Outbox:    NewOutboxRepository(db),
		Balances:  NewBalanceRepository(db),
		Clients:   NewClientRepository(db),
		Locker:    NewAccountLocker(),
	}
}
