package server

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Codec 快照序列化器：每次 Tick 编码一次，结果被所有订阅者共享
type Codec interface {
	Encode(players []PlayerState) ([]byte, error)
	// MessageType 对应的 websocket 帧类型
	MessageType() int
}

// NewCodec 按名称选择序列化器
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return jsonCodec{}, nil
	case CodecMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Encode(players []PlayerState) ([]byte, error) {
	if players == nil {
		players = []PlayerState{}
	}
	return json.Marshal(players)
}

func (jsonCodec) MessageType() int { return websocket.TextMessage }

type msgpackCodec struct{}

func (msgpackCodec) Encode(players []PlayerState) ([]byte, error) {
	if players == nil {
		players = []PlayerState{}
	}
	return msgpack.Marshal(players)
}

func (msgpackCodec) MessageType() int { return websocket.BinaryMessage }
