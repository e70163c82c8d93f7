package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"

	"taskdeck/internal/cache"
	"taskdeck/internal/cli"
	"taskdeck/internal/commands"
	"taskdeck/internal/config"
	"taskdeck/internal/credstore"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/session"
	"taskdeck/internal/testutil"
)

// testFactory builds environments over a single shared fake gateway, the
// way the production factory builds them over one HTTP backend.
func testFactory(store *credstore.MemStore, gw *testutil.FakeGateway) cli.EnvFactory {
	return func(ctx context.Context, cfg *config.Config) (*commands.Env, func(), error) {
		mgr := session.NewManager(store, gw, zerolog.Nop())
		mgr.Init(ctx)
		env := commands.NewEnv(mgr, cache.New(gw, zerolog.Nop()))
		cleanup := func() {
			env.Close()
			mgr.Close()
		}
		return env, cleanup, nil
	}
}

func newDispatcher() (*cli.Dispatcher, *testutil.FakeGateway, *credstore.MemStore) {
	store := credstore.NewMemStore()
	gw := testutil.NewFakeGateway(store)
	return cli.NewDispatcher(commands.DefaultRegistry, testFactory(store, gw)), gw, store
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	dispatcher, _, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher, _, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	dispatcher, _, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr.String() != "" {
		t.Errorf("expected no stderr, got %q", stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	dispatcher, _, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"version"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout.String() != "taskdeck 0.1.0\n" {
		t.Errorf("expected 'taskdeck 0.1.0\\n', got %q", stdout.String())
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	dispatcher, _, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help", "--unknown"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_ProtectedCommandWithoutSession(t *testing.T) {
	dispatcher, gw, _ := newDispatcher()

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list"}, &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: taskdeck login)\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
	if gw.CallCount("ListTasks") != 0 {
		t.Error("a protected command must not reach the backend anonymously")
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	dispatcher, gw, store := newDispatcher()
	gw.AddUser("a@b.com", "pw12345678")
	if err := store.Set(gw.IssueToken("a@b.com")); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "no tasks found\n" {
		t.Errorf("expected empty-list note, got %q", stdout.String())
	}
}

func TestDispatcher_LoginThenList(t *testing.T) {
	dispatcher, gw, _ := newDispatcher()
	gw.AddUser("a@b.com", "pw12345678")

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"login", "--email", "a@b.com", "--password", "pw12345678"}, &stdout, &stderr)
	if code != exitcode.Success {
		t.Fatalf("login failed: %d (stderr %q)", code, stderr.String())
	}

	// The credential persisted by login carries over to the next dispatch,
	// like a fresh process picking it up from disk.
	stdout.Reset()
	stderr.Reset()
	code = dispatcher.Run(context.Background(), []string{"add", "Buy", "milk"}, &stdout, &stderr)
	if code != exitcode.Success {
		t.Fatalf("add failed: %d (stderr %q)", code, stderr.String())
	}

	stdout.Reset()
	code = dispatcher.Run(context.Background(), []string{"list"}, &stdout, &stderr)
	if code != exitcode.Success {
		t.Fatalf("list failed: %d (stderr %q)", code, stderr.String())
	}
	expected := "   1  [ ]  Buy milk\n"
	if stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, stdout.String())
	}
}
