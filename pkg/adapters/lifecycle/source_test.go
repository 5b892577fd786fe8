package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/tagrid/pkg/core"
)

func TestSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 3)
	src := NewSource(in, core.EventModify, core.EventDelete)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventCreate, ID: "board"}
	in <- core.Event{Type: core.EventModify, ID: "board"}
	in <- core.Event{Type: core.EventDelete, ID: "board"}
	close(in)

	var got []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-src.Events():
			if !ok {
				require.Equal(t, []string{
					core.Event{Type: core.EventModify, ID: "board"}.String(),
					core.Event{Type: core.EventDelete, ID: "board"}.String(),
				}, got)
				return
			}
			got = append(got, e.String())
		case <-timeout:
			t.Fatal("source did not close")
		}
	}
}
