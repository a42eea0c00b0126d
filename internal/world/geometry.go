package world

// Point is a position on the playfield, in logical pixels.
type Point struct{ X, Y int }

// Rect is a square footprint anchored at its top-left corner.
type Rect struct{ X, Y, Size int }

// Sizes holds the square edge length for each entity kind.
type Sizes struct {
	Craft      int
	Enemy      int
	Friend     int
	Projectile int
}

// Geometry describes the playfield grid shared by every component.
type Geometry struct {
	Width  int
	Height int
	Step   int // grid pitch and per-move distance

	CraftStart Point // reserved: never handed to another entity at spawn

	// ProjectileMax is the inclusive upper bound a flying projectile may
	// occupy before it is considered out of the field.
	ProjectileMax Point

	Sizes Sizes
}

// DefaultGeometry is the classic 500x500 field on a 10px grid.
func DefaultGeometry() Geometry {
	return Geometry{
		Width:         500,
		Height:        500,
		Step:          10,
		CraftStart:    Point{X: 250, Y: 250},
		ProjectileMax: Point{X: 509, Y: 532},
		Sizes: Sizes{
			Craft:      10,
			Enemy:      10,
			Friend:     10,
			Projectile: 5,
		},
	}
}

// MaxX is the largest X a character may occupy.
func (g Geometry) MaxX() int { return g.Width - g.Step }

// MaxY is the largest Y a character may occupy.
func (g Geometry) MaxY() int { return g.Height - g.Step }

// Columns is the number of grid cells across.
func (g Geometry) Columns() int { return g.Width / g.Step }

// Rows is the number of grid cells down.
func (g Geometry) Rows() int { return g.Height / g.Step }

// InBounds reports whether a character may stand at p.
func (g Geometry) InBounds(p Point) bool {
	return p.X >= 0 && p.X <= g.MaxX() && p.Y >= 0 && p.Y <= g.MaxY()
}

// OnGrid reports whether p is aligned to the grid pitch.
func (g Geometry) OnGrid(p Point) bool {
	return p.X%g.Step == 0 && p.Y%g.Step == 0
}

// ProjectileInField reports whether a projectile at p is still flying space.
func (g Geometry) ProjectileInField(p Point) bool {
	return p.X >= 0 && p.X <= g.ProjectileMax.X && p.Y >= 0 && p.Y <= g.ProjectileMax.Y
}

// SizeOf returns the configured edge length for kind k.
func (g Geometry) SizeOf(k Kind) int {
	switch k {
	case KindCraft:
		return g.Sizes.Craft
	case KindEnemy:
		return g.Sizes.Enemy
	case KindFriend:
		return g.Sizes.Friend
	}
	return g.Step
}

// Direction is one of the four grid moves.
type Direction uint8

const (
	North Direction = iota
	West
	South
	East
)

// Directions lists every move in pick order.
var Directions = [...]Direction{North, West, South, East}

func (d Direction) Valid() bool { return d <= East }

// Delta returns the displacement of one move of length step.
func (d Direction) Delta(step int) (dx, dy int) {
	switch d {
	case North:
		return 0, -step
	case West:
		return -step, 0
	case South:
		return 0, step
	case East:
		return step, 0
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	case East:
		return "east"
	}
	return "invalid"
}
