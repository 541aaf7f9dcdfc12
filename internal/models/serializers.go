package models

// Serializer views carry a fixed field allow-list per entity. They are the
// only shapes handlers encode; entities never reach the wire directly.

type ActivationView struct {
	ID        string `json:"id"`
	UserID    int64  `json:"user_id"`
	ExpireAt  int64  `json:"expire_at"`
	Activated bool   `json:"activated"`
	Expired   bool   `json:"expired"`
}

type UserView struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Activation *ActivationView `json:"activation,omitempty"`
}

type ItemView struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	StoreID int64   `json:"store_id"`
}

type StoreView struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Items []ItemView `json:"items"`
}

// NewActivationView serializes an activation, computing its expired state
// from the wall clock at serialization time.
func NewActivationView(a *Activation) *ActivationView {
	if a == nil {
		return nil
	}
	return &ActivationView{
		ID:        a.ID,
		UserID:    a.UserID,
		ExpireAt:  a.ExpireAt,
		Activated: a.Activated,
		Expired:   a.Expired(),
	}
}

// NewUserView serializes a user together with its most recent activation,
// if any. The password hash is never included.
func NewUserView(u *User, mostRecent *Activation) *UserView {
	return &UserView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Activation: NewActivationView(mostRecent),
	}
}

func NewItemView(i *Item) ItemView {
	return ItemView{
		ID:      i.ID,
		Name:    i.Name,
		Price:   i.Price,
		StoreID: i.StoreID,
	}
}

// NewStoreView serializes a store with its items nested. Items is never
// nil so the JSON always carries an array.
func NewStoreView(s *Store) *StoreView {
	items := make([]ItemView, 0, len(s.Items))
	for i := range s.Items {
		items = append(items, NewItemView(&s.Items[i]))
	}
	return &StoreView{ID: s.ID, Name: s.Name, Items: items}
}
