// Package iostore persists station series and fill runs.
package iostore

import (
	"sync"

	"github.com/huangsam/stationqc/internal/contract"
)

// StoreManager manages the series store and the run store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	series       contract.SeriesStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores. Either may be nil.
func NewStoreManager(series contract.SeriesStore, runs contract.RunStore) *StoreManager {
	return &StoreManager{series: series, runs: runs}
}

// GetSeriesStore returns the series store.
func (mgr *StoreManager) GetSeriesStore() contract.SeriesStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.series
}

// GetRunStore returns the run store, or nil when run tracking is disabled.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
