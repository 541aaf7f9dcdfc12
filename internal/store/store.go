package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrActivationNotFound = errors.New("activation not found")
	ErrActivationExpired  = errors.New("activation has expired")
	ErrAlreadyActivated   = errors.New("activation already confirmed")
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreExists        = errors.New("store already exists")
	ErrItemNotFound       = errors.New("item not found")
	ErrItemExists         = errors.New("item already exists")
)

// Store handles all database operations
type Store struct {
	db            *sql.DB
	driver        string
	activationTTL time.Duration
}

// New creates a new store instance. activationTTL bounds how long a fresh
// activation record stays confirmable.
func New(db *sql.DB, driver string, activationTTL time.Duration) *Store {
	return &Store{db: db, driver: driver, activationTTL: activationTTL}
}

// bind rewrites `?` placeholders to `$n` when running against postgres.
// Queries are written in the sqlite style throughout.
func (s *Store) bind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertID runs an INSERT and returns the generated row id, papering over
// the LastInsertId / RETURNING split between the two drivers.
func (s *Store) insertID(query string, args ...interface{}) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.db.QueryRow(s.bind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// --- Users ---

// CreateUser persists a new user. The password must already be hashed.
// Uniqueness of username and email is enforced here and backed by the
// schema constraints for concurrent registrations.
func (s *Store) CreateUser(username, email, passwordHash string) (*models.User, error) {
	if _, err := s.GetUserByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	id, err := s.insertID(
		"INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	return &models.User{ID: id, Username: username, Email: email, Password: passwordHash}, nil
}

func (s *Store) getUser(where string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(
		s.bind("SELECT id, username, email, password FROM users WHERE "+where),
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.Password)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by id
func (s *Store) GetUserByID(id int64) (*models.User, error) {
	return s.getUser("id = ?", id)
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	return s.getUser("username = ?", username)
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser("email = ?", email)
}

// DeleteUser removes a user. Activation records go with it via the
// schema's ON DELETE CASCADE.
func (s *Store) DeleteUser(id int64) error {
	result, err := s.db.Exec(s.bind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// --- Activations ---

// CreateActivation issues a new pending activation record for a user with
// expiry = now + the configured TTL.
func (s *Store) CreateActivation(userID int64) (*models.Activation, error) {
	now := time.Now()
	a := &models.Activation{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    userID,
		ExpireAt:  now.Add(s.activationTTL).Unix(),
		Activated: false,
		CreatedAt: now.UnixNano(),
	}

	_, err := s.db.Exec(
		s.bind("INSERT INTO activations (id, user_id, expire_at, activated, created_at) VALUES (?, ?, ?, ?, ?)"),
		a.ID, a.UserID, a.ExpireAt, a.Activated, a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivation retrieves an activation record by its opaque id.
func (s *Store) GetActivation(id string) (*models.Activation, error) {
	a := &models.Activation{}
	err := s.db.QueryRow(
		s.bind("SELECT id, user_id, expire_at, activated, created_at FROM activations WHERE id = ?"),
		id,
	).Scan(&a.ID, &a.UserID, &a.ExpireAt, &a.Activated, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrActivationNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// MostRecentActivation returns the record with the largest expiry for a
// user. On equal expiries the later-created row wins.
func (s *Store) MostRecentActivation(userID int64) (*models.Activation, error) {
	a := &models.Activation{}
	err := s.db.QueryRow(
		s.bind(`SELECT id, user_id, expire_at, activated, created_at FROM activations
			WHERE user_id = ? ORDER BY expire_at DESC, created_at DESC LIMIT 1`),
		userID,
	).Scan(&a.ID, &a.UserID, &a.ExpireAt, &a.Activated, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrActivationNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivations returns all of a user's activation records, oldest
// expiry first.
func (s *Store) ListActivations(userID int64) ([]*models.Activation, error) {
	rows, err := s.db.Query(
		s.bind("SELECT id, user_id, expire_at, activated, created_at FROM activations WHERE user_id = ? ORDER BY expire_at"),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activations []*models.Activation
	for rows.Next() {
		a := &models.Activation{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.ExpireAt, &a.Activated, &a.CreatedAt); err != nil {
			return nil, err
		}
		activations = append(activations, a)
	}
	return activations, rows.Err()
}

// ForceExpireActivation sets the record's expiry to now so its link can no
// longer be confirmed. Already-expired records are left untouched.
func (s *Store) ForceExpireActivation(a *models.Activation) error {
	if a.Expired() {
		return nil
	}
	now := time.Now().Unix()
	_, err := s.db.Exec(s.bind("UPDATE activations SET expire_at = ? WHERE id = ?"), now, a.ID)
	if err != nil {
		return err
	}
	a.ExpireAt = now
	return nil
}

// ConfirmActivation flips the activated flag exactly once. An expired
// pending record fails with ErrActivationExpired; a confirmed one with
// ErrAlreadyActivated.
func (s *Store) ConfirmActivation(a *models.Activation) error {
	if a.Activated {
		return ErrAlreadyActivated
	}
	if a.Expired() {
		return ErrActivationExpired
	}
	result, err := s.db.Exec(
		s.bind("UPDATE activations SET activated = ? WHERE id = ? AND activated = ?"),
		true, a.ID, false,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Another request confirmed it between our read and the update.
		return ErrAlreadyActivated
	}
	a.Activated = true
	return nil
}

// --- Stores ---

// CreateStore creates a store with the given unique name.
func (s *Store) CreateStore(name string) (*models.Store, error) {
	if _, err := s.GetStoreByName(name); err == nil {
		return nil, ErrStoreExists
	} else if !errors.Is(err, ErrStoreNotFound) {
		return nil, err
	}

	id, err := s.insertID("INSERT INTO stores (name) VALUES (?)", name)
	if err != nil {
		return nil, err
	}
	return &models.Store{ID: id, Name: name, Items: []models.Item{}}, nil
}

// GetStoreByName retrieves a store and its items.
func (s *Store) GetStoreByName(name string) (*models.Store, error) {
	st := &models.Store{}
	err := s.db.QueryRow(s.bind("SELECT id, name FROM stores WHERE name = ?"), name).
		Scan(&st.ID, &st.Name)
	if err == sql.ErrNoRows {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.itemsForStore(st.ID)
	if err != nil {
		return nil, err
	}
	st.Items = items
	return st, nil
}

// DeleteStore removes a store by name; its items cascade.
func (s *Store) DeleteStore(name string) error {
	result, err := s.db.Exec(s.bind("DELETE FROM stores WHERE name = ?"), name)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// ListStores returns all stores with their items nested.
func (s *Store) ListStores() ([]*models.Store, error) {
	rows, err := s.db.Query("SELECT id, name FROM stores ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []*models.Store
	for rows.Next() {
		st := &models.Store{}
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		stores = append(stores, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, st := range stores {
		items, err := s.itemsForStore(st.ID)
		if err != nil {
			return nil, err
		}
		st.Items = items
	}
	return stores, nil
}

func (s *Store) itemsForStore(storeID int64) ([]models.Item, error) {
	rows, err := s.db.Query(
		s.bind("SELECT id, name, price, store_id FROM items WHERE store_id = ? ORDER BY id"),
		storeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.StoreID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// --- Items ---

// CreateItem creates an item with the given unique name.
func (s *Store) CreateItem(name string, price float64, storeID int64) (*models.Item, error) {
	if _, err := s.GetItemByName(name); err == nil {
		return nil, ErrItemExists
	} else if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}

	id, err := s.insertID(
		"INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)",
		name, price, storeID,
	)
	if err != nil {
		return nil, err
	}
	return &models.Item{ID: id, Name: name, Price: price, StoreID: storeID}, nil
}

// GetItemByName retrieves an item by name
func (s *Store) GetItemByName(name string) (*models.Item, error) {
	it := &models.Item{}
	err := s.db.QueryRow(
		s.bind("SELECT id, name, price, store_id FROM items WHERE name = ?"),
		name,
	).Scan(&it.ID, &it.Name, &it.Price, &it.StoreID)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

// UpdateItemPrice sets a new price on an existing item.
func (s *Store) UpdateItemPrice(it *models.Item, price float64) error {
	_, err := s.db.Exec(s.bind("UPDATE items SET price = ? WHERE id = ?"), price, it.ID)
	if err != nil {
		return err
	}
	it.Price = price
	return nil
}

// DeleteItem removes an item by name.
func (s *Store) DeleteItem(name string) error {
	result, err := s.db.Exec(s.bind("DELETE FROM items WHERE name = ?"), name)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListItems returns all items.
func (s *Store) ListItems() ([]*models.Item, error) {
	rows, err := s.db.Query("SELECT id, name, price, store_id FROM items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		it := &models.Item{}
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.StoreID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
