package board

import (
	"errors"
	"testing"
)

func testBoard() *Board {
	return &Board{
		Name:      "Bench",
		LEDs:      []Pin{{Name: "LED1", ID: "LED1"}, {Name: "LED2", ID: "LED2"}},
		Switches:  []Pin{{Name: "SW1", ID: "SW1"}},
		Buttons:   []Pin{{Name: "BTN1", ID: "BTN1"}},
		OtherPins: []Pin{{Name: "HEX0", ID: "H0"}},
		Digits:    []SevenSegmentDigit{{A: "LED1", B: "SW1", G: "H0"}},
	}
}

func TestPinValue_ResolvesEveryRole(t *testing.T) {
	t.Parallel()

	b := testBoard()
	for _, id := range []string{"LED1", "LED2", "SW1", "BTN1", "H0"} {
		p, err := b.PinValue(id)
		if err != nil {
			t.Fatalf("PinValue(%q) error: %v", id, err)
		}
		if p.ID != id {
			t.Fatalf("PinValue(%q).ID = %q", id, p.ID)
		}
	}
}

func TestPinValue_ReturnsLivePin(t *testing.T) {
	t.Parallel()

	b := testBoard()
	p, err := b.PinValue("SW1")
	if err != nil {
		t.Fatalf("PinValue: %v", err)
	}
	p.Status = true
	if !b.Switches[0].Status {
		t.Fatal("mutation through PinValue did not reach the board")
	}
}

func TestPinValue_EmptyIDIsDetachedFalse(t *testing.T) {
	t.Parallel()

	b := &Board{}
	p, err := b.PinValue("")
	if err != nil {
		t.Fatalf("PinValue(\"\") error: %v", err)
	}
	if p.Status {
		t.Fatal("empty id should read false")
	}
}

func TestPinValue_MissingID(t *testing.T) {
	t.Parallel()

	_, err := testBoard().PinValue("NOPE")
	var nf *PinNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v, want PinNotFoundError", err)
	}
	if nf.ID != "NOPE" {
		t.Fatalf("PinNotFoundError.ID = %q, want NOPE", nf.ID)
	}
}

func TestFind_RestrictsToRole(t *testing.T) {
	t.Parallel()

	b := testBoard()
	if _, err := b.Find(RoleSwitch, "LED1"); !IsPinNotFound(err) {
		t.Fatalf("Find(switch, LED1) error = %v, want not found", err)
	}
	if p, err := b.Find(RoleLED, "LED2"); err != nil || p.Name != "LED2" {
		t.Fatalf("Find(led, LED2) = %+v, %v", p, err)
	}
}

func TestSegments_ProjectsPinStatus(t *testing.T) {
	t.Parallel()

	b := testBoard()
	d := b.Digits[0]

	if got := b.Segments(d); got != [8]bool{} {
		t.Fatalf("segments before change = %v, want all off", got)
	}

	b.LEDs[0].Status = true
	b.OtherPins[0].Status = true
	got := b.Segments(d)
	want := [8]bool{true, false, false, false, false, false, true, false}
	if got != want {
		t.Fatalf("segments = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(b *Board)
		wantErr  error
		notFound bool
	}{
		{name: "valid", mutate: func(*Board) {}},
		{
			name:    "duplicate across roles",
			mutate:  func(b *Board) { b.Buttons = append(b.Buttons, Pin{Name: "dup", ID: "LED1"}) },
			wantErr: ErrDuplicatePin,
		},
		{
			name:    "empty id",
			mutate:  func(b *Board) { b.OtherPins = append(b.OtherPins, Pin{Name: "blank"}) },
			wantErr: ErrEmptyPinID,
		},
		{
			name:    "empty name",
			mutate:  func(b *Board) { b.LEDs = append(b.LEDs, Pin{ID: "L9"}) },
			wantErr: ErrEmptyPinName,
		},
		{
			name:     "digit references missing pin",
			mutate:   func(b *Board) { b.Digits[0].P = "MISSING" },
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBoard()
			tt.mutate(b)
			err := b.Validate()
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
				}
			case tt.notFound:
				if !IsPinNotFound(err) {
					t.Fatalf("Validate() = %v, want PinNotFoundError", err)
				}
			default:
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
			}
		})
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	b := testBoard()
	c := b.Clone()
	c.Switches[0].Status = true
	c.Digits[0].A = "LED2"

	if b.Switches[0].Status {
		t.Fatal("clone shares switch storage with its source")
	}
	if b.Digits[0].A != "LED1" {
		t.Fatal("clone shares digit storage with its source")
	}
}
