package vault

// Cookie is the store's view of one outgoing cookie. MaxAge <= 0 deletes
// the cookie.
type Cookie struct {
	Name   string
	Value  string
	MaxAge int // seconds
}

// CookieJar is the port the store reads and writes cookies through. The HTTP
// layer backs it with the request/response pair of a single fiber context;
// tests use MemoryJar. All store side effects are confined to the jar passed
// in, so a jar never outlives its request.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(c Cookie)
}

// MemoryJar is an in-memory CookieJar. Writes are immediately visible to
// reads, which mirrors a browser carrying Set-Cookie into the next request.
type MemoryJar struct {
	values map[string]string
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{values: make(map[string]string)}
}

func (j *MemoryJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *MemoryJar) Set(c Cookie) {
	if c.MaxAge <= 0 {
		delete(j.values, c.Name)
		return
	}
	j.values[c.Name] = c.Value
}
