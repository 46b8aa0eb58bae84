package hub

import (
	"testing"
	"time"
)

func TestSweeperClosesZombieSinks(t *testing.T) {
	clk := newFakeClock()
	reg := NewRegistry(50, clk)

	zombie := &fakeSink{}
	if _, err := reg.Create("dead", "c1", "p1", "a", zombie); err != nil {
		t.Fatal(err)
	}
	clk.Advance(2 * time.Hour)

	s := &Sweeper{Registry: reg, Interval: time.Minute, MaxIdle: time.Hour}
	s.sweep()

	if !zombie.isClosed() {
		t.Error("zombie sink not closed by sweep")
	}
	if st := reg.Stats(); st.TotalRooms != 0 {
		t.Errorf("rooms after sweep = %d", st.TotalRooms)
	}
}

func TestSweeperKeepsActiveRooms(t *testing.T) {
	clk := newFakeClock()
	reg := NewRegistry(50, clk)
	sink := &fakeSink{}
	if _, err := reg.Create("live", "c1", "p1", "a", sink); err != nil {
		t.Fatal(err)
	}
	clk.Advance(30 * time.Minute)

	s := &Sweeper{Registry: reg, Interval: time.Minute, MaxIdle: time.Hour}
	s.sweep()

	if sink.isClosed() {
		t.Error("active sink closed")
	}
	if st := reg.Stats(); st.TotalRooms != 1 {
		t.Errorf("rooms after sweep = %d", st.TotalRooms)
	}
}
