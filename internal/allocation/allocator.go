package allocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/google/uuid"
)

// ErrPoolExhausted is returned when a conditional decrement touched no row.
var ErrPoolExhausted = errors.New("capacity pool exhausted")

// Request is one row's draw on a pool.
type Request struct {
	Row     int
	Key     Key
	Pallets int64
}

// Shortfall describes a pool whose accumulated requests exceed its capacity.
type Shortfall struct {
	Key       Key
	Mode      Mode
	Requested int64
	Available int64
	Rows      []int
}

func (s Shortfall) Error() string {
	rows := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("capacity exceeded for %s: %d pallets requested, %d available (%s); rows %s",
		s.Key, s.Requested, s.Available, s.Mode, strings.Join(rows, ", "))
}

// Ledger accumulates requested pallets per pool in first-seen order.
type Ledger struct {
	order  []Key
	totals map[Key]int64
	rows   map[Key][]int
}

func NewLedger(reqs []Request) *Ledger {
	l := &Ledger{totals: make(map[Key]int64), rows: make(map[Key][]int)}
	for _, r := range reqs {
		if _, seen := l.totals[r.Key]; !seen {
			l.order = append(l.order, r.Key)
		}
		l.totals[r.Key] += r.Pallets
		l.rows[r.Key] = append(l.rows[r.Key], r.Row)
	}
	return l
}

// Keys returns the pools in the order they were first requested.
func (l *Ledger) Keys() []Key { return l.order }

// Requested returns the summed request for a pool.
func (l *Ledger) Requested(k Key) int64 { return l.totals[k] }

// Rows returns the rows contributing to a pool.
func (l *Ledger) Rows(k Key) []int { return l.rows[k] }

// Check compares accumulated requests against pool capacity. Requests for
// pools missing from the map are skipped; resolving them is the caller's job.
func Check(pools map[Key]Pool, reqs []Request) []Shortfall {
	ledger := NewLedger(reqs)
	var out []Shortfall
	for _, key := range ledger.Keys() {
		pool, ok := pools[key]
		if !ok {
			continue
		}
		requested := ledger.Requested(key)
		if requested > pool.Available() {
			out = append(out, Shortfall{
				Key:       key,
				Mode:      pool.Mode(),
				Requested: requested,
				Available: pool.Available(),
				Rows:      ledger.Rows(key),
			})
		}
	}
	return out
}

// Decrementer performs the two conditional decrements.
type Decrementer interface {
	DecrementUnbooked(ctx context.Context, inventoryID uuid.UUID, pallets int64) (int64, error)
	DecrementRemaining(ctx context.Context, lineID uuid.UUID, pallets int64) (int64, error)
}

// Decrement draws pallets from a pool through the counter its mode selects.
func Decrement(ctx context.Context, d Decrementer, pool Pool, pallets int64) error {
	var (
		n   int64
		err error
	)
	switch p := pool.(type) {
	case Stocked:
		n, err = d.DecrementUnbooked(ctx, p.InventoryID, pallets)
	case Unstocked:
		n, err = d.DecrementRemaining(ctx, p.LineID, pallets)
	default:
		return fmt.Errorf("unknown pool type %T", pool)
	}
	if err != nil {
		return fmt.Errorf("decrement %s pool %s: %w", pool.Mode(), pool.PoolKey(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s (%s)", ErrPoolExhausted, pool.PoolKey(), pool.Mode())
	}
	return nil
}

// Locker re-reads pools under a row lock.
type Locker interface {
	LockPools(ctx context.Context, lineIDs []uuid.UUID) ([]database.Pool, error)
}

// Reserve locks the pools behind reqs, rebuilds them from the locked rows
// and re-runs the accumulation check. It must run inside the transaction
// that performs the decrements. Pools are locked in line id order.
func Reserve(ctx context.Context, l Locker, lineIDs map[Key]uuid.UUID, reqs []Request) (map[Key]Pool, []Shortfall, error) {
	ids := make([]uuid.UUID, 0, len(lineIDs))
	for _, key := range NewLedger(reqs).Keys() {
		if id, ok := lineIDs[key]; ok {
			ids = append(ids, id)
		}
	}
	rows, err := l.LockPools(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("lock pools: %w", err)
	}
	pools := Index(rows)
	for _, key := range NewLedger(reqs).Keys() {
		if _, ok := pools[key]; !ok {
			return nil, nil, fmt.Errorf("pool %s disappeared before commit", key)
		}
	}
	return pools, Check(pools, reqs), nil
}
