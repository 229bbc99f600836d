package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	MenuItemID string `json:"menu_item_id"`
	Qty        int    `json:"qty"`
	Note       string `json:"note,omitempty"`
}

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, COALESCE(external_id,''), customer_id, restaurant_id, courier_id, status,
       total_cents, address_street, address_city, address_postcode, address_note,
       created_at, updated_at`

// CreateOrder snapshots name+price from menu_items inside the tx and computes
// the total server-side; client prices are never read. Idempotent via
// external_id: replays return the existing order.
func (r *Repo) CreateOrder(ctx context.Context, customerID, restaurantID, externalID string, items []ItemInput, addr Address) (Order, error) {
	// existing by external_id
	if externalID != "" {
		if o, err := r.getByExternalID(ctx, externalID); err == nil {
			return o, nil
		} else if !errors.Is(err, ErrNotFound) {
			return Order{}, err
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// restaurant must exist; menu prices come from its menu only
	var ownerID string
	err = tx.QueryRow(ctx, `SELECT owner_id FROM restaurants WHERE id=$1`, restaurantID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("%w: unknown restaurant %s", ErrValidation, restaurantID)
	} else if err != nil {
		return Order{}, err
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MenuItemID)
	}
	rows, err := tx.Query(ctx, `SELECT id, name, price_cents, available FROM menu_items
	                            WHERE restaurant_id=$1 AND id = ANY($2)`, restaurantID, ids)
	if err != nil {
		return Order{}, err
	}
	menu := map[string]MenuItem{}
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.PriceCents, &m.Available); err != nil {
			rows.Close()
			return Order{}, err
		}
		m.RestaurantID = restaurantID
		menu[m.ID] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, err
	}

	o, err := BuildOrder(customerID, restaurantID, externalID, items, addr, menu)
	if err != nil {
		return Order{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, external_id, customer_id, restaurant_id, status, total_cents,
		                   address_street, address_city, address_postcode, address_note)
		VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		o.ID, o.ExternalID, o.CustomerID, o.RestaurantID, o.Status, o.TotalCents,
		addr.Street, addr.City, addr.Postcode, addr.Note,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		// lost the idempotency race: another request inserted the same external_id
		var pgErr *pgconn.PgError
		if externalID != "" && errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return r.getByExternalID(ctx, externalID)
		}
		return Order{}, err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, menu_item_id, name, price_cents, qty, note)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.OrderID, it.MenuItemID, it.Name, it.PriceCents, it.Qty, it.Note); err != nil {
			return Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) getByExternalID(ctx context.Context, externalID string) (Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_id=$1`, externalID)
	return r.scanWithItems(ctx, row)
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	return r.scanWithItems(ctx, row)
}

func (r *Repo) scanWithItems(ctx context.Context, row pgx.Row) (Order, error) {
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.ExternalID, &o.CustomerID, &o.RestaurantID, &o.CourierID, &o.Status,
		&o.TotalCents, &o.Address.Street, &o.Address.City, &o.Address.Postcode, &o.Address.Note,
		&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *Repo) loadItems(ctx context.Context, orderIDs []string) (map[string][]OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, order_id, menu_item_id, name, price_cents, qty, note
	                              FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.PriceCents, &it.Qty, &it.Note); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// ListByCustomer returns one page of the customer's orders, newest first.
func (r *Repo) ListByCustomer(ctx context.Context, customerID string, status *Status, page, size int) ([]Order, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	q := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id=$1`
	args := []any{customerID}
	if status != nil {
		q += ` AND status=$2`
		args = append(args, *status)
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, (page-1)*size)

	return r.queryOrders(ctx, q, args...)
}

// ListAvailable returns unclaimed ready-for-pickup orders, oldest first so no
// order starves.
func (r *Repo) ListAvailable(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE status=$1 AND courier_id IS NULL ORDER BY created_at ASC`, StatusPrepared)
}

// ListAssigned returns the courier's active orders.
func (r *Repo) ListAssigned(ctx context.Context, courierID string) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE courier_id=$1 AND status = ANY($2) ORDER BY created_at ASC`,
		courierID, []Status{StatusPrepared, StatusInDelivery})
}

// ListDelivered returns the courier's delivery history, newest first.
func (r *Repo) ListDelivered(ctx context.Context, courierID string) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE courier_id=$1 AND status=$2 ORDER BY updated_at DESC`, courierID, StatusDelivered)
}

func (r *Repo) queryOrders(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	ids := make([]string, 0, 16)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

// UpdateStatusCAS flips status only if the row still holds `from`. The
// conditional write is the lost-update guard; callers never read-then-write.
func (r *Repo) UpdateStatusCAS(ctx context.Context, orderID string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2`, orderID, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// UpdateStatusByCourier additionally requires the row to be assigned to the
// given courier, so a racing reassignment can never be overwritten.
func (r *Repo) UpdateStatusByCourier(ctx context.Context, orderID, courierID string, from, to Status) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$4, updated_at=now()
		WHERE id=$1 AND courier_id=$2 AND status=$3`, orderID, courierID, from, to)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Assign claims the order for a courier, first writer wins. Succeeds only
// while the order is PREPARED and unassigned.
func (r *Repo) Assign(ctx context.Context, orderID, courierID string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET courier_id=$2, updated_at=now()
		WHERE id=$1 AND status=$3 AND courier_id IS NULL`, orderID, courierID, StatusPrepared)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// RestaurantOwner resolves the owner of a restaurant from the consumed read
// model, for authorization and notification targeting.
func (r *Repo) RestaurantOwner(ctx context.Context, restaurantID string) (string, error) {
	var ownerID string
	err := r.DB.QueryRow(ctx, `SELECT owner_id FROM restaurants WHERE id=$1`, restaurantID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return ownerID, err
}
