// Package servers keeps the list of vendor CRM instances a task can run
// against.
package servers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Server is one CRM instance and the account used to drive it.
type Server struct {
	Name     string
	URL      string
	Username string
	Password string
}

// Registry holds servers by name.
type Registry struct {
	servers map[string]Server
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[string]Server),
	}
}

func (r *Registry) Get(name string) (Server, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, exists := r.servers[strings.ToLower(name)]
	return s, exists
}

func (r *Registry) Set(s Server) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[strings.ToLower(s.Name)] = s
}

func (r *Registry) Delete(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	_, exists := r.servers[key]
	delete(r.servers, key)
	return exists
}

// All returns the servers sorted by name.
func (r *Registry) All() []Server {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Server, 0, len(r.servers))
	for _, s := range r.servers {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

var header = []string{"Name", "URL", "Username", "Password"}

// Read parses a server list. Passwords with the encrypted prefix are opened
// with c. The header row is optional.
func Read(r io.Reader, c *Cipher) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read server list: %w", err)
	}

	reg := NewRegistry()
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), header[0]) {
			continue
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			slog.Warn("Skipping server row", "line", i+1, "columns", len(rec))
			continue
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}

		password, err := c.Decrypt(rec[3])
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", rec[0], err)
		}
		reg.Set(Server{
			Name:     strings.TrimSpace(rec[0]),
			URL:      strings.TrimSpace(rec[1]),
			Username: strings.TrimSpace(rec[2]),
			Password: password,
		})
	}
	return reg, nil
}

// Write stores the registry with every password encrypted.
func Write(w io.Writer, reg *Registry, c *Cipher) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range reg.All() {
		password := s.Password
		if password != "" {
			var err error
			if password, err = c.Encrypt(password); err != nil {
				return fmt.Errorf("server %q: %w", s.Name, err)
			}
		}
		if err := cw.Write([]string{s.Name, s.URL, s.Username, password}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the server list at path. A missing file is an empty list.
func Load(fs afero.Fs, path string, c *Cipher) (*Registry, error) {
	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to open server list: %w", err)
	}
	defer f.Close()
	return Read(f, c)
}

// Save writes the server list to path.
func Save(fs afero.Fs, path string, reg *Registry, c *Cipher) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create server list: %w", err)
	}
	if err := Write(f, reg, c); err != nil {
		f.Close()
		return fmt.Errorf("failed to write server list: %w", err)
	}
	return f.Close()
}
