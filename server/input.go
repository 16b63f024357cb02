package server

import "unicode/utf8"

// InputEvent 客户端输入事件（封闭集合），每条消息只取第一个字符
type InputEvent int

const (
	InputUnrecognized InputEvent = iota
	InputJump
	InputStartLeft
	InputStartRight
	InputStopLeft
	InputStopRight
)

func (e InputEvent) String() string {
	switch e {
	case InputJump:
		return "jump"
	case InputStartLeft:
		return "start_left"
	case InputStartRight:
		return "start_right"
	case InputStopLeft:
		return "stop_left"
	case InputStopRight:
		return "stop_right"
	default:
		return "unrecognized"
	}
}

// Decode 解析入站消息：空消息、非法 UTF-8 或未知字符都返回 InputUnrecognized
func Decode(msg []byte) InputEvent {
	r, size := utf8.DecodeRune(msg)
	if size == 0 || r == utf8.RuneError {
		return InputUnrecognized
	}
	return DecodeRune(r)
}

// DecodeRune 单字符到事件的映射
func DecodeRune(r rune) InputEvent {
	switch r {
	case 'j':
		return InputJump
	case 'l':
		return InputStartLeft
	case 'r':
		return InputStartRight
	case 'a':
		return InputStopLeft
	case 'd':
		return InputStopRight
	default:
		return InputUnrecognized
	}
}

// applyInput 修改玩家速度；返回 false 表示事件不产生任何效果
func applyInput(p *Player, ev InputEvent, jumpImpulse, moveSpeed float64) bool {
	switch ev {
	case InputJump:
		// 连续跳跃会叠加，不检查是否落地
		p.VY -= jumpImpulse
	case InputStartLeft:
		p.VX = -moveSpeed
	case InputStartRight:
		p.VX = moveSpeed
	case InputStopLeft, InputStopRight:
		// 预留给“松开按键”语义
	default:
		// InputUnrecognized
		return false
	}
	return true
}
