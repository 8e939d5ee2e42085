// Package iocache persists previews and pipeline runs in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/ecgscope/internal/contract"
)

// StoreManagerImpl manages the preview and run stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	previews     contract.PreviewStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetPreviewStore returns the preview store.
func (mgr *StoreManagerImpl) GetPreviewStore() contract.PreviewStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.previews
}

// GetRunStore returns the run store.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
