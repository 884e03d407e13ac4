package grpc

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatal("json codec not registered")
	}

	type msg struct {
		Member string `json:"member"`
		Roles  uint8  `json:"roles"`
	}
	data, err := c.Marshal(msg{Member: "alice", Roles: 6})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"member":"alice","roles":6}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out msg
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Member != "alice" || out.Roles != 6 {
		t.Errorf("Unmarshal() = %+v", out)
	}
}
