package composer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanpama/livegraph/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLeafPassthrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comp := New(NewMockRuntime())
	out := comp.Compose(ctx, "X", Leaf("String"), nil)

	require.Equal(t, "X", nextSnapshot(t, out))
	requireNoSnapshot(t, out)
}

func TestNullNodeYieldsNull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comp := New(NewMockRuntime())
	out := comp.Compose(ctx, "ignored", Null(), nil)

	require.Nil(t, nextSnapshot(t, out))
	requireNoSnapshot(t, out)
}

func TestObjectWithProjectedLeaf(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Query"), projectField("a", "String"))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{"a": "X"}, Object("Query"), nil)

	want := map[string]any{"a": "X"}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
	requireNoSnapshot(t, out)
}

func TestObjectWaitsForEveryField(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Query"),
		subscribeField("a", "String", "Query"),
		subscribeField("b", "String", "Query"),
	)
	aStream := stream.New[any]()
	bStream := stream.New[any]()
	rt.SetProducer("Query", "a", NewMockStreamProducer(aStream))
	rt.SetProducer("Query", "b", NewMockStreamProducer(bStream))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{}, Object("Query"), nil)

	go aStream.Send(ctx, "A1")
	requireNoSnapshot(t, out)

	go bStream.Send(ctx, "B1")
	want := map[string]any{"a": "A1", "b": "B1"}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}

	// A later update re-emits a full snapshot with b's last value carried
	// forward.
	go aStream.Send(ctx, "A2")
	want = map[string]any{"a": "A2", "b": "B1"}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
	requireNoSnapshot(t, out)
}

func TestPerSourceOrderPreserved(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Query"),
		subscribeField("a", "String", "Query"),
		projectField("b", "String"),
	)
	aStream := stream.New[any]()
	rt.SetProducer("Query", "a", NewMockStreamProducer(aStream))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{"b": "static"}, Object("Query"), nil)

	values := []string{"A1", "A2", "A3", "A4", "A5"}
	go func() {
		for _, v := range values {
			aStream.Send(ctx, v)
		}
	}()

	var got []string
	for range values {
		snap := nextSnapshot(t, out).(map[string]any)
		got = append(got, snap["a"].(string))
	}
	require.Equal(t, values, got)
}

func TestSupersededSubtreeStopsEmitting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("User"),
		projectField("name", "String"),
		subscribeField("status", "String", "User"),
	)
	rt.AddType(Object("Query"), subscribeField("user", "User", "Query"))

	userStream := stream.New[any]()
	status1 := stream.New[any]()
	status2 := stream.New[any]()
	rt.SetProducer("Query", "user", NewMockStreamProducer(userStream))
	rt.SetProducer("User", "status", func(ctx context.Context, source any, args map[string]any) (any, error) {
		if source.(map[string]any)["name"] == "n1" {
			return status1, nil
		}
		return status2, nil
	})

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{}, Object("Query"), nil)

	go userStream.Send(ctx, map[string]any{"name": "n1"})
	go status1.Send(ctx, "online")
	want := map[string]any{"user": map[string]any{"name": "n1", "status": "online"}}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}

	// A newer user value retires the previous user's subtree.
	go userStream.Send(ctx, map[string]any{"name": "n2"})
	go status2.Send(ctx, "away")
	want = map[string]any{"user": map[string]any{"name": "n2", "status": "away"}}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}

	// The retired subtree's producer keeps producing internally; it is no
	// longer observed and nothing further is emitted for it.
	stale, cancelStale := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancelStale()
	require.False(t, status1.Send(stale, "zombie"))
	requireNoSnapshot(t, out)
}

func TestOneShotResolutionComposedRecursively(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Profile"),
		projectField("id", "String"),
		subscribeField("presence", "String", "Profile"),
	)
	rt.AddType(Object("Query"), resolveField("profile", "Profile", "Query"))

	presence := stream.New[any]()
	rt.SetProducer("Query", "profile", NewMockValueProducer(map[string]any{"id": "p1"}))
	rt.SetProducer("Profile", "presence", NewMockStreamProducer(presence))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{}, Object("Query"), nil)

	// The one-shot resolution completed, but its result carries its own
	// live structure; nothing is emitted until that has produced too.
	requireNoSnapshot(t, out)

	go presence.Send(ctx, "online")
	want := map[string]any{"profile": map[string]any{"id": "p1", "presence": "online"}}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}

	// A newer presence value supersedes the old one inside the resolved
	// subtree; the resolved value itself stays current.
	go presence.Send(ctx, "away")
	want = map[string]any{"profile": map[string]any{"id": "p1", "presence": "away"}}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
	requireNoSnapshot(t, out)

	modes := map[string]ProducerMode{}
	for _, call := range rt.GetCalls() {
		if call.Kind == "producer" {
			modes[call.ObjectType+"."+call.Field] = call.Mode
		}
	}
	require.Equal(t, ModeResolve, modes["Query.profile"])
	require.Equal(t, ModeSubscribe, modes["Profile.presence"])
}

func TestAbstractTypeResolvedPerValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Dog"), projectField("name", "String"))
	rt.AddType(Object("Query"), projectField("pet", "Pet"))
	rt.SetTypeResolver(func(typeRef string, value any) (*TypeNode, error) {
		switch typeRef {
		case "Pet":
			return Object("Dog"), nil
		case "String":
			return Leaf("String"), nil
		}
		return nil, fmt.Errorf("unknown type %q", typeRef)
	})

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{"pet": map[string]any{"name": "rex"}}, Object("Query"), nil)

	want := map[string]any{"pet": map[string]any{"name": "rex"}}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyObjectEmitsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Object("Empty"))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{}, Object("Empty"), nil)

	require.Equal(t, map[string]any{}, nextSnapshot(t, out))
	requireNoSnapshot(t, out)
}

func TestListComposesPerIndex(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comp := New(NewMockRuntime())
	node := List(Leaf("Int"), Leaf("Int"), Leaf("Int"))
	out := comp.Compose(ctx, []any{1, 2, 3}, node, nil)

	if diff := cmp.Diff([]any{1, 2, 3}, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
	requireNoSnapshot(t, out)
}

func TestListOfObjectsWithLiveField(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Item"),
		projectField("id", "String"),
		subscribeField("state", "String", "Item"),
	)
	states := map[string]*stream.Stream[any]{
		"i1": stream.New[any](),
		"i2": stream.New[any](),
	}
	rt.SetProducer("Item", "state", func(ctx context.Context, source any, args map[string]any) (any, error) {
		return states[source.(map[string]any)["id"].(string)], nil
	})

	comp := New(rt)
	value := []any{
		map[string]any{"id": "i1"},
		map[string]any{"id": "i2"},
	}
	out := comp.Compose(ctx, value, List(Object("Item"), Object("Item")), nil)

	go states["i1"].Send(ctx, "ready")
	requireNoSnapshot(t, out)

	go states["i2"].Send(ctx, "pending")
	want := []any{
		map[string]any{"id": "i1", "state": "ready"},
		map[string]any{"id": "i2", "state": "pending"},
	}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}

	go states["i1"].Send(ctx, "done")
	want[0] = map[string]any{"id": "i1", "state": "done"}
	if diff := cmp.Diff(want, nextSnapshot(t, out)); diff != "" {
		t.Fatalf("composite mismatch (-want +got):\n%s", diff)
	}
}

func TestRuntimeCallOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := NewMockRuntime()
	rt.AddType(Leaf("String"))
	rt.AddType(Object("Query"), projectField("a", "String"))

	comp := New(rt)
	out := comp.Compose(ctx, map[string]any{"a": "X"}, Object("Query"), nil)
	nextSnapshot(t, out)

	want := []Call{
		{Kind: "list-fields", ObjectType: "Query"},
		{Kind: "resolve-type", TypeRef: "String", Source: "X"},
	}
	if diff := cmp.Diff(want, rt.GetCalls()); diff != "" {
		t.Fatalf("runtime calls mismatch (-want +got):\n%s", diff)
	}
}
