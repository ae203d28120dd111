package updatemanager

import (
	"sync"
	"sync/atomic"
	"time"
)

// DownloadedUpdate is a verified artifact waiting to be installed
type DownloadedUpdate struct {
	Bytes           []byte
	Version         string
	BaselineVersion string
	DownloadedAt    time.Time
}

// Status is a snapshot of the update state
type Status struct {
	Checking         bool   `json:"checking"`
	UpdateAvailable  bool   `json:"updateAvailable"`
	UpdateDownloaded bool   `json:"updateDownloaded"`
	Version          string `json:"version,omitempty"`
	Size             int64  `json:"size,omitempty"`
}

// State is the process wide update state shared by the scheduler, checker, downloader and installer.
// The downloaded flag and the cached artifact only change together under mu.
type State struct {
	started          atomic.Bool
	checking         atomic.Bool
	updateAvailable  atomic.Bool
	updateDownloaded atomic.Bool

	mu     sync.Mutex
	cached *DownloadedUpdate
}

func NewState() *State {
	return &State{}
}

// markStarted sets the started flag, returning false if it was already set
func (s *State) markStarted() bool {
	return s.started.CompareAndSwap(false, true)
}

func (s *State) Started() bool {
	return s.started.Load()
}

// tryBeginCheck acquires the single-flight check gate
func (s *State) tryBeginCheck() bool {
	return s.checking.CompareAndSwap(false, true)
}

func (s *State) endCheck() {
	s.checking.Store(false)
}

func (s *State) Checking() bool {
	return s.checking.Load()
}

func (s *State) setUpdateAvailable() {
	s.updateAvailable.Store(true)
}

func (s *State) UpdateAvailable() bool {
	return s.updateAvailable.Load()
}

func (s *State) UpdateDownloaded() bool {
	return s.updateDownloaded.Load()
}

// StoreDownloadedUpdate caches the artifact, replacing any previous one
func (s *State) StoreDownloadedUpdate(update DownloadedUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &update
	s.updateAvailable.Store(true)
	s.updateDownloaded.Store(true)
}

// TakeDownloadedUpdate moves the cached artifact out of the state. ok is false if there is none.
func (s *State) TakeDownloadedUpdate() (*DownloadedUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	update := s.cached
	s.cached = nil
	s.updateDownloaded.Store(false)
	return update, update != nil
}

// clearUpdate forgets the available release and drops any cached artifact
func (s *State) clearUpdate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	s.updateDownloaded.Store(false)
	s.updateAvailable.Store(false)
}

// reset clears every flag but started and drops any cached artifact
func (s *State) reset(releaseCheck bool) {
	s.clearUpdate()
	if releaseCheck {
		s.endCheck()
	}
}

// Status returns a snapshot of the flags and the cached version
func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Checking:         s.checking.Load(),
		UpdateAvailable:  s.updateAvailable.Load(),
		UpdateDownloaded: s.updateDownloaded.Load(),
	}
	if s.cached != nil {
		st.Version = s.cached.Version
		st.Size = int64(len(s.cached.Bytes))
	}
	return st
}
