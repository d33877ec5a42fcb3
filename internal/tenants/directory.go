package tenants

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Directory resolves users and the hotels they may see. It is immutable once loaded.
type Directory struct {
	users  map[string]User
	hotels map[string]Hotel
	order  []string
}

// LoadFile reads and validates a directory file.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tenants: open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Load decodes and validates a directory from r.
func Load(r io.Reader) (*Directory, error) {
	var file File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("tenants: decode: %w", err)
	}
	return New(file)
}

// New validates file and indexes it.
func New(file File) (*Directory, error) {
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("tenants: validate: %w", err)
	}
	dir := &Directory{
		users:  make(map[string]User, len(file.Users)),
		hotels: make(map[string]Hotel, len(file.Hotels)),
	}
	for _, h := range file.Hotels {
		if _, dup := dir.hotels[h.ID]; dup {
			return nil, fmt.Errorf("tenants: duplicate hotel %q", h.ID)
		}
		dir.hotels[h.ID] = h
	}
	for _, u := range file.Users {
		if _, dup := dir.users[u.ID]; dup {
			return nil, fmt.Errorf("tenants: duplicate user %q", u.ID)
		}
		for _, id := range u.HotelIDs {
			if _, ok := dir.hotels[id]; !ok {
				return nil, fmt.Errorf("tenants: user %q references unknown hotel %q", u.ID, id)
			}
		}
		if u.Role == "" {
			u.Role = RoleViewer
		}
		u.HotelIDs = append([]string(nil), u.HotelIDs...)
		dir.users[u.ID] = u
		dir.order = append(dir.order, u.ID)
	}
	sort.Strings(dir.order)
	return dir, nil
}

// User looks up a user by id.
func (d *Directory) User(id string) (User, error) {
	u, ok := d.users[strings.TrimSpace(id)]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return u, nil
}

// Hotel looks up a hotel by id.
func (d *Directory) Hotel(id string) (Hotel, bool) {
	h, ok := d.hotels[id]
	return h, ok
}

// Hotels returns the hotels visible to u, in the user's declared order.
func (d *Directory) Hotels(u User) []Hotel {
	out := make([]Hotel, 0, len(u.HotelIDs))
	for _, id := range u.HotelIDs {
		if h, ok := d.hotels[id]; ok {
			out = append(out, h)
		}
	}
	return out
}

// ResolveHotels narrows requested to u's scope. An empty request selects every hotel of u.
func (d *Directory) ResolveHotels(u User, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), u.HotelIDs...), nil
	}
	allowed := make(map[string]struct{}, len(u.HotelIDs))
	for _, id := range u.HotelIDs {
		allowed[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := allowed[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrForbiddenHotel, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return append([]string(nil), u.HotelIDs...), nil
	}
	return out, nil
}

// Users lists every user, ordered by id.
func (d *Directory) Users() []User {
	out := make([]User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.users[id])
	}
	return out
}

// HotelIDs lists every hotel id, sorted.
func (d *Directory) HotelIDs() []string {
	out := make([]string, 0, len(d.hotels))
	for id := range d.hotels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
