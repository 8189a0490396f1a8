package unison

// Store saves and restores the pool's program state. Only the master's
// state is persisted: the other instances are derived from it, their
// individual edits are not kept.
type Store struct {
	pool *Pool
	sync *Synchronizer
}

// NewStore creates a store over pool, realigning through sync on load.
func NewStore(pool *Pool, sync *Synchronizer) *Store {
	return &Store{pool: pool, sync: sync}
}

// Save returns the master's serialized state.
func (s *Store) Save() ([]byte, error) {
	master := s.pool.Master()
	if master.Missing() {
		return nil, instanceErr(0, "get state", ErrMissingInstance)
	}
	return master.engine.GetState()
}

// Load applies blob to every instance with the guard suppressed, then
// re-applies detune and republishes the program. Loading the same blob
// twice leaves the same state. Instances that reject the blob are
// reported but the others keep it.
func (s *Store) Load(blob []byte) error {
	return s.sync.LoadState(blob)
}
