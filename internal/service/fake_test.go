package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/littlelemon/internal/auth"
	"github.com/mmeshcher/littlelemon/internal/model"
	"github.com/mmeshcher/littlelemon/internal/repository"
)

// fakeRepo - хранилище в памяти с той же семантикой ошибок, что и PostgresRepository.
type fakeRepo struct {
	mu sync.Mutex

	nextID int64

	users      map[int64]*model.User
	categories map[int64]model.Category
	menu       map[int64]model.MenuItem
	cart       []model.CartLine
	orders     map[int64]*model.Order

	lastFilter model.MenuFilter
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[int64]*model.User),
		categories: make(map[int64]model.Category),
		menu:       make(map[int64]model.MenuItem),
		orders:     make(map[int64]*model.Order),
	}
}

func (f *fakeRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) addUser(username string, groups ...string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.users[id] = &model.User{ID: id, Username: username, Groups: groups}
	return id
}

func (f *fakeRepo) addMenuItem(title, price string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.menu[id] = model.MenuItem{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: model.Category{ID: 1, Slug: "mains", Title: "Mains"},
	}
	return id
}

func (f *fakeRepo) cartOf(userID int64) []model.CartLine {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.CartLine
	for _, l := range f.cart {
		if l.UserID == userID {
			res = append(res, l)
		}
	}
	return res
}

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) CreateUser(ctx context.Context, u model.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("username %s: %w", u.Username, model.ErrConflict)
		}
	}
	u.ID = f.id()
	f.users[u.ID] = &u
	return u.ID, nil
}

func (f *fakeRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (f *fakeRepo) ListGroupMembers(ctx context.Context, group string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.User
	for _, u := range f.users {
		if u.InGroup(group) {
			res = append(res, *u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	return res, nil
}

func (f *fakeRepo) AddUserToGroup(ctx context.Context, userID int64, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	if !u.InGroup(group) {
		u.Groups = append(u.Groups, group)
	}
	return nil
}

func (f *fakeRepo) RemoveUserFromGroup(ctx context.Context, userID int64, group string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	for i, g := range u.Groups {
		if g == group {
			u.Groups = append(u.Groups[:i], u.Groups[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Category
	for _, c := range f.categories {
		res = append(res, c)
	}
	return res, nil
}

func (f *fakeRepo) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.categories {
		if existing.Slug == c.Slug {
			return model.Category{}, model.ErrConflict
		}
	}
	c.ID = f.id()
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeRepo) ListMenuItems(ctx context.Context, filter model.MenuFilter) ([]model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	var res []model.MenuItem
	for _, m := range f.menu {
		res = append(res, m)
	}
	return res, nil
}

func (f *fakeRepo) GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.menu[id]
	if !ok {
		return model.MenuItem{}, model.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) CreateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.id()
	f.menu[item.ID] = item
	return item, nil
}

func (f *fakeRepo) UpdateMenuItem(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.menu[item.ID]; !ok {
		return model.MenuItem{}, model.ErrNotFound
	}
	f.menu[item.ID] = item
	return item, nil
}

func (f *fakeRepo) DeleteMenuItem(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.menu[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.menu, id)
	return nil
}

func (f *fakeRepo) ListCart(ctx context.Context, userID int64) ([]model.CartLine, error) {
	return f.cartOf(userID), nil
}

func (f *fakeRepo) AddCartLine(ctx context.Context, userID, menuItemID int64, quantity int) (model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.menu[menuItemID]
	if !ok {
		return model.CartLine{}, fmt.Errorf("menu item %d: %w", menuItemID, model.ErrNotFound)
	}
	line := model.CartLine{
		ID:        f.id(),
		UserID:    userID,
		MenuItem:  item,
		Quantity:  quantity,
		UnitPrice: item.Price,
		Price:     item.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	f.cart = append(f.cart, line)
	return line, nil
}

func (f *fakeRepo) ClearCart(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.cart[:0]
	for _, l := range f.cart {
		if l.UserID != userID {
			kept = append(kept, l)
		}
	}
	f.cart = kept
	return nil
}

func (f *fakeRepo) Checkout(ctx context.Context, userID int64, date time.Time) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lines []model.CartLine
	kept := make([]model.CartLine, 0, len(f.cart))
	for _, l := range f.cart {
		if l.UserID == userID {
			lines = append(lines, l)
		} else {
			kept = append(kept, l)
		}
	}
	if len(lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	o := &model.Order{ID: f.id(), UserID: userID, Date: date, Total: decimal.Zero}
	for _, l := range lines {
		price := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		o.Items = append(o.Items, model.OrderItem{
			ID:        f.id(),
			MenuItem:  l.MenuItem,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Price:     price,
		})
		o.Total = o.Total.Add(price)
	}
	f.orders[o.ID] = o
	f.cart = kept

	c := *o
	return &c, nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, scope model.OrderScope, ordering []model.OrderingField) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []model.Order
	for _, o := range f.orders {
		switch {
		case scope.All:
		case scope.DeliveryCrew != 0:
			if !o.AssignedTo(scope.DeliveryCrew) {
				continue
			}
		default:
			if o.UserID != scope.OwnerID {
				continue
			}
		}
		res = append(res, *o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (f *fakeRepo) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, model.ErrNotFound)
	}
	c := *o
	return &c, nil
}

type fakeUsers struct {
	f *fakeRepo
}

func (u fakeUsers) UserExists(ctx context.Context, id int64) (bool, error) {
	_, ok := u.f.users[id]
	return ok, nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, id int64, mutate repository.OrderMutation) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, model.ErrNotFound)
	}

	next, err := mutate(ctx, *o, fakeUsers{f: f})
	if err != nil {
		return nil, err
	}

	o.DeliveryCrew = next.DeliveryCrew
	o.Status = next.Status
	c := *o
	return &c, nil
}

func (f *fakeRepo) DeleteOrder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type stubTokens struct {
	issuedFor int64
	revoked   []string
}

func (s *stubTokens) Issue(userID int64) (string, error) {
	s.issuedFor = userID
	return fmt.Sprintf("token-%d", userID), nil
}

func (s *stubTokens) Revoke(ctx context.Context, c auth.Claims) error {
	s.revoked = append(s.revoked, c.TokenID)
	return nil
}
