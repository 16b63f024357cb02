package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"
	"github.com/solarlune/resolv"
)

// ErrUnknownPlatformKind 关卡文件中出现未知的平台类型
var ErrUnknownPlatformKind = errors.New("unknown platform kind")

// PlatformKind 平台类型（封闭集合）
type PlatformKind int

const (
	// PlatformSolid 各方向都阻挡
	PlatformSolid PlatformKind = iota
	// PlatformPassThrough 单向平台，目前不做碰撞处理
	PlatformPassThrough
)

func (k PlatformKind) String() string {
	switch k {
	case PlatformSolid:
		return "solid"
	case PlatformPassThrough:
		return "pass_through"
	default:
		return "unknown"
	}
}

// ParsePlatformKind 解析关卡文件里的平台类型名
func ParsePlatformKind(s string) (PlatformKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solid":
		return PlatformSolid, nil
	case "pass_through", "passthrough":
		return PlatformPassThrough, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlatformKind, s)
	}
}

func (k PlatformKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PlatformKind) UnmarshalText(b []byte) error {
	parsed, err := ParsePlatformKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Platform 静态关卡几何（轴对齐矩形），进程生命周期内不变
type Platform struct {
	Kind PlatformKind `json:"kind"`
	X    float64      `json:"x"`
	Y    float64      `json:"y"`
	W    float64      `json:"w"`
	H    float64      `json:"h"`
}

// Overlaps 严格的 AABB 相交判定（贴边不算）
func (p Platform) Overlaps(x, y, w, h float64) bool {
	return x < p.X+p.W && x+w > p.X && y < p.Y+p.H && y+h > p.Y
}

const (
	cellSize = 16

	tagPlatform = "platform"
	tagPlayer   = "player"

	// resolv 计算格子时会把远端边缘减 1，平台和玩家粗筛体四周都放大一个单位，
	// 保证严格相交的两个矩形至少共享一个格子（含宽高不足 1 的平台）
	bodyPadding = 1.0
)

// Level 平台集合 + resolv 粗筛空间。平台不可变；空间里的玩家碰撞体只在 World 锁内修改
type Level struct {
	Platforms []Platform
	Width     int
	Height    int

	// 空间覆盖关卡范围与所有平台的包围盒，originX/originY 是空间原点对应的世界坐标
	originX float64
	originY float64
	space   *resolv.Space
	objects map[*resolv.Object]int
}

// NewLevel 根据平台列表构建碰撞空间
func NewLevel(width, height int, platforms []Platform) *Level {
	l := &Level{
		Platforms: append([]Platform(nil), platforms...),
		Width:     width,
		Height:    height,
		objects:   make(map[*resolv.Object]int, len(platforms)),
	}

	minX, minY := 0.0, 0.0
	maxX, maxY := float64(width), float64(height)
	for _, p := range l.Platforms {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X+p.W)
		maxY = math.Max(maxY, p.Y+p.H)
	}
	// 四周各留一个格子给放大的边
	l.originX = math.Floor(minX) - cellSize
	l.originY = math.Floor(minY) - cellSize
	spaceW := int(math.Ceil(maxX-l.originX)) + 2*cellSize
	spaceH := int(math.Ceil(maxY-l.originY)) + 2*cellSize
	l.space = resolv.NewSpace(spaceW, spaceH, cellSize, cellSize)

	for i, p := range l.Platforms {
		obj := resolv.NewObject(
			p.X-l.originX-bodyPadding, p.Y-l.originY-bodyPadding,
			p.W+2*bodyPadding, p.H+2*bodyPadding,
			tagPlatform, p.Kind.String())
		l.space.Add(obj)
		l.objects[obj] = i
	}
	return l
}

func (l *Level) addBody(x, y, w, h float64) *resolv.Object {
	body := resolv.NewObject(x-l.originX-bodyPadding, y-l.originY-bodyPadding, w+2*bodyPadding, h+2*bodyPadding, tagPlayer)
	l.space.Add(body)
	return body
}

func (l *Level) removeBody(body *resolv.Object) {
	if body != nil {
		l.space.Remove(body)
	}
}

// candidates 移动玩家粗筛体并返回可能相交的平台下标（升序、去重），精确判定由调用方完成。
// 所有平台都在空间内，玩家离开空间范围时不会与任何平台相交
func (l *Level) candidates(body *resolv.Object, x, y float64) []int {
	body.X = x - l.originX - bodyPadding
	body.Y = y - l.originY - bodyPadding
	body.Update()

	check := body.Check(0, 0, tagPlatform)
	if check == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(check.Objects))
	out := make([]int, 0, len(check.Objects))
	for _, obj := range check.Objects {
		idx, ok := l.objects[obj]
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// SpawnPoint 关卡文件可选的出生点
type SpawnPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LevelData 从文件解析得到的关卡描述
type LevelData struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Spawn     *SpawnPoint `json:"spawn,omitempty"`
	Platforms []Platform  `json:"platforms"`
}

// LoadLevelFile 按扩展名加载关卡：.tmx 走 go-tiled，其余按 JSON 解析
func LoadLevelFile(path string) (*LevelData, error) {
	if strings.EqualFold(filepath.Ext(path), ".tmx") {
		return loadTMXLevel(path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	var data LevelData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse level %s: %w", path, err)
	}
	return &data, nil
}

// loadTMXLevel 读取 "Platforms" 对象层（属性 kind=solid|pass_through）与 "PlayerSpawn" 对象层
func loadTMXLevel(path string) (*LevelData, error) {
	m, err := tiled.LoadFile(filepath.Base(path), tiled.WithFileSystem(os.DirFS(filepath.Dir(path))))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", path, err)
	}

	data := &LevelData{
		Width:  m.Width * m.TileWidth,
		Height: m.Height * m.TileHeight,
	}
	for _, og := range m.ObjectGroups {
		switch og.Name {
		case "Platforms":
			for _, o := range og.Objects {
				kind, err := ParsePlatformKind(o.Properties.GetString("kind"))
				if err != nil {
					return nil, fmt.Errorf("object %d in %s: %w", o.ID, path, err)
				}
				data.Platforms = append(data.Platforms, Platform{
					Kind: kind,
					X:    o.X,
					Y:    o.Y,
					W:    o.Width,
					H:    o.Height,
				})
			}
		case "PlayerSpawn":
			if len(og.Objects) > 0 && data.Spawn == nil {
				data.Spawn = &SpawnPoint{X: og.Objects[0].X, Y: og.Objects[0].Y}
			}
		}
	}
	return data, nil
}

// ApplyLevel 把关卡文件内容合并进配置
func (c *Config) ApplyLevel(data *LevelData) {
	if data == nil {
		return
	}
	if data.Width > 0 {
		c.LevelWidth = data.Width
	}
	if data.Height > 0 {
		c.LevelHeight = data.Height
	}
	if data.Spawn != nil {
		c.SpawnX = data.Spawn.X
		c.SpawnY = data.Spawn.Y
	}
	c.Platforms = append([]Platform(nil), data.Platforms...)
}
