package statemachine

import "testing"

func TestApplyPutGetDelete(t *testing.T) {
	sm := NewKVStateMachine()

	raw, err := sm.Apply(Command{Type: CommandPut, Key: "a", Value: []byte("1")}.Encode())
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	res, err := DecodeResult(raw.([]byte))
	if err != nil || !res.OK {
		t.Fatalf("expected successful put result, got %+v, err=%v", res, err)
	}

	raw, err = sm.Apply(Command{Type: CommandGet, Key: "a"}.Encode())
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	res, _ = DecodeResult(raw.([]byte))
	if !res.OK || string(res.Value) != "1" {
		t.Fatalf("expected get to return value \"1\", got %+v", res)
	}

	raw, err = sm.Apply(Command{Type: CommandDelete, Key: "a"}.Encode())
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	res, _ = DecodeResult(raw.([]byte))
	if !res.OK {
		t.Fatalf("expected successful delete result, got %+v", res)
	}

	raw, _ = sm.Apply(Command{Type: CommandGet, Key: "a"}.Encode())
	res, _ = DecodeResult(raw.([]byte))
	if res.OK {
		t.Fatal("expected get of a deleted key to fail")
	}
}

func TestApplyUnknownCommandType(t *testing.T) {
	sm := NewKVStateMachine()

	raw, err := sm.Apply(Command{Type: "BOGUS", Key: "a"}.Encode())
	if err == nil {
		t.Fatal("expected an error for an unrecognized command type")
	}
	res, decodeErr := DecodeResult(raw.([]byte))
	if decodeErr != nil {
		t.Fatalf("result did not decode: %v", decodeErr)
	}
	if res.Error == "" {
		t.Fatal("expected the result to carry the error message")
	}
}

func TestApplyMalformedCommand(t *testing.T) {
	sm := NewKVStateMachine()

	_, err := sm.Apply([]byte("not json"))
	if err == nil {
		t.Fatal("expected an error for a malformed command")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	sm := NewKVStateMachine()
	sm.Apply(Command{Type: CommandPut, Key: "a", Value: []byte("1")}.Encode())

	snap := sm.Snapshot()
	snap["a"] = []byte("mutated")

	raw, _ := sm.Apply(Command{Type: CommandGet, Key: "a"}.Encode())
	res, _ := DecodeResult(raw.([]byte))
	if string(res.Value) != "1" {
		t.Fatal("mutating a Snapshot result affected the live store")
	}
}
