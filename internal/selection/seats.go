package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/payflow-checkout/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const (
	FirstRow byte = 'A'
	LastRow  byte = 'N'
)

// SeatState is the state of one seat in the grid.
type SeatState string

const (
	SeatAvailable SeatState = "available"
	SeatSelected  SeatState = "selected"
	SeatOccupied  SeatState = "occupied"
)

// Seat addresses a cinema seat by row letter and 1-based column.
type Seat struct {
	Row byte
	Col int
}

// String renders the seat as row letter followed by column, e.g. "C7".
func (s Seat) String() string {
	return string(s.Row) + strconv.Itoa(s.Col)
}

func (s Seat) less(o Seat) bool {
	if s.Row != o.Row {
		return s.Row < o.Row
	}
	return s.Col < o.Col
}

// ParseSeat parses "C7" style labels. Row letters are case-insensitive.
func ParseSeat(label string) (Seat, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) < 2 {
		return Seat{}, fmt.Errorf("invalid seat %q", label)
	}
	row := label[0]
	col, err := strconv.Atoi(label[1:])
	if err != nil {
		return Seat{}, fmt.Errorf("invalid seat %q: %w", label, err)
	}
	return Seat{Row: row, Col: col}, nil
}

// SeatGrid is the seat-mode selection state machine: rows A..N by a fixed
// number of columns, an externally supplied occupied set and the user's
// selection. The selection never intersects the occupied set.
type SeatGrid struct {
	columns  int
	occupied map[Seat]struct{}
	selected map[Seat]struct{}
}

// NewSeatGrid builds a grid. Occupied labels that do not parse or fall
// outside the grid are ignored.
func NewSeatGrid(columns int, occupied []string) *SeatGrid {
	g := &SeatGrid{
		columns:  columns,
		selected: map[Seat]struct{}{},
	}
	g.occupied = g.parseOccupied(occupied)
	return g
}

func (g *SeatGrid) parseOccupied(labels []string) map[Seat]struct{} {
	out := make(map[Seat]struct{}, len(labels))
	for _, label := range labels {
		seat, err := ParseSeat(label)
		if err != nil || !g.Contains(seat) {
			continue
		}
		out[seat] = struct{}{}
	}
	return out
}

// Columns returns the number of seats per row.
func (g *SeatGrid) Columns() int { return g.columns }

// Rows returns the row letters of the grid in order.
func (g *SeatGrid) Rows() []byte {
	rows := make([]byte, 0, LastRow-FirstRow+1)
	for r := FirstRow; r <= LastRow; r++ {
		rows = append(rows, r)
	}
	return rows
}

// Contains reports whether the seat lies inside the grid.
func (g *SeatGrid) Contains(seat Seat) bool {
	return seat.Row >= FirstRow && seat.Row <= LastRow && seat.Col >= 1 && seat.Col <= g.columns
}

// State returns the seat's current state.
func (g *SeatGrid) State(seat Seat) SeatState {
	if _, ok := g.occupied[seat]; ok {
		return SeatOccupied
	}
	if _, ok := g.selected[seat]; ok {
		return SeatSelected
	}
	return SeatAvailable
}

// Toggle flips an available seat to selected and back. Occupied seats are
// left untouched and reported as occupied. Seats outside the grid fail.
func (g *SeatGrid) Toggle(seat Seat) (SeatState, error) {
	if !g.Contains(seat) {
		return "", outOfGrid(seat)
	}
	switch g.State(seat) {
	case SeatOccupied:
		return SeatOccupied, nil
	case SeatSelected:
		delete(g.selected, seat)
		return SeatAvailable, nil
	default:
		g.selected[seat] = struct{}{}
		return SeatSelected, nil
	}
}

// Select marks each labelled seat as selected. Labels that do not parse, fall
// outside the grid, are occupied or already selected are rejected together in
// one validation error. On error the grid holds only the accepted labels and
// should be discarded by callers that need all-or-nothing.
func (g *SeatGrid) Select(labels ...string) error {
	var errs error
	for _, label := range labels {
		seat, err := ParseSeat(label)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !g.Contains(seat) {
			errs = multierr.Append(errs, outOfGrid(seat))
			continue
		}
		switch g.State(seat) {
		case SeatOccupied:
			errs = multierr.Append(errs, fmt.Errorf("seat %s is occupied", seat))
		case SeatSelected:
			errs = multierr.Append(errs, fmt.Errorf("seat %s selected twice", seat))
		default:
			g.selected[seat] = struct{}{}
		}
	}
	if errs == nil {
		return nil
	}
	reasons := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		reasons = append(reasons, err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid seat selection").
		WithDetails(map[string]any{"seats": reasons})
}

// SetOccupied replaces the occupied set and drops any selected seat that is
// now taken. It returns the dropped seats.
func (g *SeatGrid) SetOccupied(labels []string) []Seat {
	g.occupied = g.parseOccupied(labels)
	var dropped []Seat
	for seat := range g.selected {
		if _, taken := g.occupied[seat]; taken {
			delete(g.selected, seat)
			dropped = append(dropped, seat)
		}
	}
	sortSeats(dropped)
	return dropped
}

// Selected returns the selected seats ordered by row then column.
func (g *SeatGrid) Selected() []Seat {
	out := make([]Seat, 0, len(g.selected))
	for seat := range g.selected {
		out = append(out, seat)
	}
	sortSeats(out)
	return out
}

// Labels returns the selected seats rendered as labels.
func (g *SeatGrid) Labels() []string {
	seats := g.Selected()
	out := make([]string, len(seats))
	for i, seat := range seats {
		out[i] = seat.String()
	}
	return out
}

// Count returns the number of selected seats.
func (g *SeatGrid) Count() int {
	return len(g.selected)
}

// Total is the running total: selected count × unitPrice.
func (g *SeatGrid) Total(unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(len(g.selected))))
}

// Clear drops the selection.
func (g *SeatGrid) Clear() {
	g.selected = map[Seat]struct{}{}
}

func sortSeats(seats []Seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].less(seats[j]) })
}

func outOfGrid(seat Seat) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("seat %s is outside the grid", seat))
}
