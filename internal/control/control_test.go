package control

import (
	"sync"
	"testing"
)

func TestDirection_Delta(t *testing.T) {
	tests := []struct {
		dir    Direction
		dx, dy int
	}{
		{Up, 0, -1},
		{Down, 0, 1},
		{Left, -1, 0},
		{Right, 1, 0},
		{None, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			dx, dy := tt.dir.Delta()
			if dx != tt.dx || dy != tt.dy {
				t.Errorf("Delta() = (%d, %d), want (%d, %d)", dx, dy, tt.dx, tt.dy)
			}
		})
	}
}

func TestDirection_Opposite(t *testing.T) {
	pairs := map[Direction]Direction{
		Up:    Down,
		Down:  Up,
		Left:  Right,
		Right: Left,
		None:  None,
	}

	for d, want := range pairs {
		if got := d.Opposite(); got != want {
			t.Errorf("%s.Opposite() = %s, want %s", d, got, want)
		}
	}

	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Errorf("%s: opposite is not an involution", d)
		}
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"UP", Up, false},
		{"down", Down, false},
		{" Left ", Left, false},
		{"right", Right, false},
		{"", None, false},
		{"none", None, false},
		{"diagonal", None, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	for _, d := range Directions {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %s, %v", d.String(), got, err)
		}
	}
}

func TestChannel_PublishLatest(t *testing.T) {
	ch := NewChannel()

	if got := ch.Latest(); got.Direction != None || got.Pinch || got.Seq != 0 {
		t.Fatalf("empty channel Latest() = %+v, want zero command", got)
	}

	ch.Publish(Up, false)
	ch.Publish(Left, true)

	got := ch.Latest()
	if got.Direction != Left || !got.Pinch {
		t.Errorf("Latest() = %s/%v, want LEFT/true", got.Direction, got.Pinch)
	}
	if got.Seq != 2 {
		t.Errorf("Seq = %d, want 2 (intermediate publish overwritten, not queued)", got.Seq)
	}

	ch.Reset()
	got = ch.Latest()
	if got.Direction != None || got.Pinch {
		t.Errorf("after Reset Latest() = %+v, want empty", got)
	}
	if got.Seq != 3 {
		t.Errorf("Seq after Reset = %d, want 3", got.Seq)
	}
}

// Each writer publishes pairs where pinch is a pure function of direction.
// A torn read would surface as a mismatched pair.
func TestChannel_NoTornReads(t *testing.T) {
	ch := NewChannel()
	pinchFor := func(d Direction) bool { return d == Up || d == Left }

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			d := Directions[i%len(Directions)]
			ch.Publish(d, pinchFor(d))
			i++
		}
	}()

	for i := 0; i < 10000; i++ {
		cmd := ch.Latest()
		if cmd.Seq == 0 {
			continue
		}
		if cmd.Pinch != pinchFor(cmd.Direction) {
			t.Fatalf("torn read: direction %s with pinch %v", cmd.Direction, cmd.Pinch)
		}
	}

	close(stop)
	wg.Wait()
}
