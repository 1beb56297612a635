package session

import (
	"sync"

	"github.com/google/uuid"
)

// File is a saved snippet waiting to be fetched by the browser.
type File struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// DownloadQueue is the Saver of a browser session. Saved files are held
// until the page fetches them once; Pending hands the browser the files
// produced since the last call, in save order.
type DownloadQueue struct {
	mu      sync.Mutex
	files   map[string]File
	pending []File
}

// NewDownloadQueue creates an empty queue.
func NewDownloadQueue() *DownloadQueue {
	return &DownloadQueue{files: make(map[string]File)}
}

// Save queues a file for download.
func (q *DownloadQueue) Save(name string, content []byte) error {
	f := File{
		ID:      uuid.NewString(),
		Name:    name,
		Content: append([]byte(nil), content...),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.files[f.ID] = f
	q.pending = append(q.pending, f)
	return nil
}

// Pending returns and clears the files saved since the last call.
func (q *DownloadQueue) Pending() []File {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Take returns the file and forgets it. Each file can be fetched once.
func (q *DownloadQueue) Take(id string) (File, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.files[id]
	if ok {
		delete(q.files, id)
	}
	return f, ok
}

// Len returns the number of files not yet fetched.
func (q *DownloadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.files)
}
