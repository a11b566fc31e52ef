package transport

import "testing"

func TestMemConn_WriteThenRead(t *testing.T) {
	a, b := NewMemConnPair()
	defer a.Close()
	defer b.Close()

	env := Envelope{Type: "node_move", OpID: "op-1"}
	if err := a.WriteJSON(env); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got Envelope
	if err := b.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != "node_move" || got.OpID != "op-1" {
		t.Fatalf("unexpected envelope: %+v", got)
	}
}

func TestMemConn_CloseUnblocksRead(t *testing.T) {
	a, b := NewMemConnPair()
	defer b.Close()

	a.Close()
	var got Envelope
	if err := a.ReadJSON(&got); err == nil {
		t.Fatal("expected read on closed conn to error")
	}
}

func TestDecodeEncodeParamsRoundTrip(t *testing.T) {
	params := map[string]interface{}{"nodeId": "A", "position": []interface{}{1.0, 2.0}}
	raw, err := EncodeParams(params)
	if err != nil {
		t.Fatalf("EncodeParams: %v", err)
	}
	env := Envelope{Type: "node_move", Params: raw}
	decoded, err := DecodeParams(env)
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	if decoded["nodeId"] != "A" {
		t.Fatalf("unexpected decoded params: %+v", decoded)
	}
}
