package decompose

import (
	"reflect"
	"testing"

	"github.com/ShayCichocki/relay/pkg/models"
)

func TestPruneDropsNearDuplicates(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Search the web for Go generics articles", Agent: "WebSearch"},
		{Seq: 2, Description: "search the web for go generics articles", Agent: "WebSearch"},
		{Seq: 3, Description: "Summarize everything found so far today", Agent: "Coordinator"},
	}

	pruned := Prune(subtasks, reg)
	if len(pruned) != 2 {
		t.Fatalf("expected 2 subtasks after pruning, got %d", len(pruned))
	}
	if pruned[0].Seq != 1 || pruned[1].Seq != 3 {
		t.Errorf("wrong survivors: %+v", pruned)
	}
}

func TestPruneKeepsSameTextDifferentAgent(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Look into the quarterly report numbers", Agent: "Coordinator"},
		{Seq: 2, Description: "Look into the quarterly report numbers", Agent: "FileReader"},
	}

	// Duplicate intent only counts against the same agent.
	if pruned := Prune(subtasks, reg); len(pruned) != 2 {
		t.Errorf("expected both subtasks kept, got %d", len(pruned))
	}
}

func TestPruneDropsCapabilityMismatch(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Search the web for upstream changelogs", Agent: "FileReader"},
		{Seq: 2, Description: "Read the local changelog file in the repo", Agent: "FileReader"},
	}

	pruned := Prune(subtasks, reg)
	if len(pruned) != 1 || pruned[0].Seq != 2 {
		t.Fatalf("expected only the file task to survive, got %+v", pruned)
	}
}

func TestPruneDropsUnknownAgent(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Do something with a missing agent", Agent: "Ghost"},
		{Seq: 2, Description: "Do something with no agent at all", Agent: ""},
		{Seq: 3, Description: "Summarize the outcome for the user", Agent: "Coordinator"},
	}

	pruned := Prune(subtasks, reg)
	if len(pruned) != 1 || pruned[0].Seq != 3 {
		t.Fatalf("expected only subtask 3, got %+v", pruned)
	}
}

func TestPruneStripsDanglingDependencies(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Search the web for framework comparisons", Agent: "Ghost"},
		{Seq: 2, Description: "Summarize the comparison results found", Agent: "Coordinator", DependsOn: []int{1}},
	}

	pruned := Prune(subtasks, reg)
	if len(pruned) != 1 {
		t.Fatalf("expected 1 subtask, got %d", len(pruned))
	}
	if len(pruned[0].DependsOn) != 0 {
		t.Errorf("expected dangling dependency stripped, got %v", pruned[0].DependsOn)
	}
}

func TestPruneIdempotent(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Search the web for release announcements", Agent: "WebSearch"},
		{Seq: 2, Description: "search the web for release announcements", Agent: "WebSearch"},
		{Seq: 3, Description: "Read the local release notes file", Agent: "FileReader", DependsOn: []int{2}},
		{Seq: 4, Description: "Summarize all gathered release information", Agent: "Coordinator", DependsOn: []int{1, 3}},
	}

	once := Prune(subtasks, reg)
	twice := Prune(once, reg)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("prune is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestPruneDoesNotMutateInput(t *testing.T) {
	reg := testRegistry(t)
	subtasks := []*models.Subtask{
		{Seq: 1, Description: "Search the web for something interesting", Agent: "Ghost"},
		{Seq: 2, Description: "Summarize whatever has been found", Agent: "Coordinator", DependsOn: []int{1}},
	}

	Prune(subtasks, reg)

	if len(subtasks[1].DependsOn) != 1 || subtasks[1].DependsOn[0] != 1 {
		t.Error("prune mutated its input")
	}
}
