package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/nidhogg/gym-advisor/internal/graph"
	"github.com/nidhogg/gym-advisor/internal/graphdb"
	"github.com/nidhogg/gym-advisor/internal/history"
	"github.com/nidhogg/gym-advisor/internal/memory"
)

func TestMain(m *testing.M) {
	if os.Getenv("ADVISOR_E2E") == "" {
		fmt.Fprintln(os.Stderr, "ADVISOR_E2E not set, skipping container-backed tests")
		os.Exit(0)
	}

	ctx := context.Background()
	testLogger, _ = zap.NewDevelopment()

	neo4jURI, neo4jCleanup, err := startNeo4j(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "neo4j: %v\n", err)
		os.Exit(1)
	}
	defer neo4jCleanup()
	testNeo4jURI = neo4jURI

	pgDSN, pgCleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres: %v\n", err)
		os.Exit(1)
	}
	defer pgCleanup()
	testPGDSN = pgDSN

	redisURL, redisCleanup, err := startRedis(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer redisCleanup()
	testRedisURL = redisURL

	os.Exit(m.Run())
}

func TestRedisSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	sessions, err := memory.NewRedisSessions(ctx, testRedisURL, testLogger)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer sessions.Close()

	m, err := sessions.Get(ctx, "e2e-s1")
	if err != nil {
		t.Fatalf("get fresh session: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("fresh session should be empty, got %d turns", m.Len())
	}

	m.Add("What replaces barbell bench press?", "Dumbbell bench press.")
	m.Add("Why?", "Neutral grip spares the shoulder.")
	if err := sessions.Put(ctx, "e2e-s1", m); err != nil {
		t.Fatalf("put session: %v", err)
	}

	again, err := sessions.Get(ctx, "e2e-s1")
	if err != nil {
		t.Fatalf("get session again: %v", err)
	}
	if again.Len() != 2 {
		t.Errorf("got %d turns after round trip, want 2", again.Len())
	}
	turns := again.Turns()
	if turns[0].Answer != "Dumbbell bench press." {
		t.Errorf("got first answer %q, want persisted value", turns[0].Answer)
	}
}

func TestPostgresHistoryMigrateAppendRead(t *testing.T) {
	ctx := context.Background()
	log, err := history.NewPostgresLog(ctx, testPGDSN, testLogger)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	defer log.Close()

	if err := log.Migrate(ctx, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for i := 0; i < 3; i++ {
		payload := map[string]any{"question": fmt.Sprintf("q%d", i), "steps": i + 1}
		if err := log.Append(ctx, "answer", payload); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := log.Read(ctx, 10)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, ev := range events {
		if ev.Type != "answer" {
			t.Errorf("got event type %q, want answer", ev.Type)
		}
	}
	if events[0].TS.After(events[2].TS) {
		t.Error("events should come back oldest first")
	}
}

func TestNeo4jIngestAndQueryEdges(t *testing.T) {
	ctx := context.Background()
	client, err := graphdb.NewClient(testNeo4jURI, "", "", testLogger)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close(ctx)

	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	edges := []graph.Edge{
		{Source: "Bench Press", Relation: "targets", Target: "Chest"},
		{Source: "Chest", Relation: "part_of", Target: "Upper Body"},
		{Source: "Back Squat", Relation: "targets", Target: "Quads"},
	}
	if err := client.IngestEdges(ctx, edges); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	res, err := client.QueryEdges(ctx, "bench press evidence", 25)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	foundEdge := false
	for _, e := range res.Edges {
		if e.Source == "Bench Press" && e.Relation == "targets" && e.Target == "Chest" {
			foundEdge = true
		}
		if e.Source == "Back Squat" {
			t.Errorf("unrelated edge leaked into results: %+v", e)
		}
	}
	if !foundEdge {
		t.Errorf("got edges %+v, want Bench Press -targets-> Chest", res.Edges)
	}

	foundNode := false
	for _, n := range res.MatchedNodes {
		if n == "Bench Press" {
			foundNode = true
		}
	}
	if !foundNode {
		t.Errorf("got matched nodes %v, want Bench Press", res.MatchedNodes)
	}

	// Ingest is a MERGE; repeating it must not duplicate edges.
	if err := client.IngestEdges(ctx, edges); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	again, err := client.QueryEdges(ctx, "bench press evidence", 25)
	if err != nil {
		t.Fatalf("query again: %v", err)
	}
	if len(again.Edges) != len(res.Edges) {
		t.Errorf("got %d edges after re-ingest, want %d", len(again.Edges), len(res.Edges))
	}
}
