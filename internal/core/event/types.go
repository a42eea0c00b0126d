package event

import "github.com/gridshooter/gridshooter/internal/core/ecs"

// CharacterKilled is emitted when a character makes the alive->dead transition.
// Cause names the collision that killed it ("collision", "craft shot", ...).
type CharacterKilled struct {
	ID    ecs.EntityID
	Kind  string
	X, Y  int
	Cause string
}

// ProjectileSpent is emitted when a projectile stops flying.
// Hit is true when it was absorbed by a character rather than leaving the field.
type ProjectileSpent struct {
	ID      ecs.EntityID
	Faction string
	X, Y    int
	Hit     bool
}

// GameEnded is emitted once when the match reaches a terminal state.
type GameEnded struct {
	Won bool
}
