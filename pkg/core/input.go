// pkg/core/input.go
package core

// ActionKind names an inbound player action.
type ActionKind string

const (
	ActionMove     ActionKind = "move"
	ActionJump     ActionKind = "jump"
	ActionAttack   ActionKind = "attack"
	ActionReload   ActionKind = "reload"
	ActionInteract ActionKind = "interact"
	ActionConsume  ActionKind = "consume"
	ActionVehicle  ActionKind = "vehicle"
	ActionRevive   ActionKind = "revive"
	ActionSpectate ActionKind = "spectate"
)

// Weapon slot indices.
const (
	SlotPrimary   = 0
	SlotSecondary = 1
)

// InteractKind is the sub-action of an interact input.
type InteractKind string

const (
	InteractPickupLoot   InteractKind = "pickup_loot"
	InteractEnterVehicle InteractKind = "enter_vehicle"
	InteractExitVehicle  InteractKind = "exit_vehicle"
	InteractOpenDoor     InteractKind = "open_door"
)

// VehicleActionKind is the sub-action of a vehicle input.
type VehicleActionKind string

const (
	VehicleDrive VehicleActionKind = "drive"
	VehicleHorn  VehicleActionKind = "horn"
)

// Action is one of the concrete action types below.
type Action interface {
	Kind() ActionKind
	// Valid reports whether the action is well-formed, independent of match state.
	Valid() bool
}

// Input is a sequenced action submitted by a player.
type Input struct {
	Seq    uint64
	Action Action
}

// Valid reports whether the input carries a well-formed action.
func (in Input) Valid() bool {
	return in.Action != nil && in.Action.Valid()
}

type MoveAction struct {
	Direction Vec3    `msgpack:"direction"`
	Magnitude float64 `msgpack:"magnitude"`
	Sprint    bool    `msgpack:"sprint"`
	Crouch    bool    `msgpack:"crouch"`
}

func (MoveAction) Kind() ActionKind { return ActionMove }

func (a MoveAction) Valid() bool {
	return a.Direction.IsFinite() && a.Magnitude >= 0 && a.Magnitude <= 1
}

// JumpAction releases a player from the dropship. Target steers the parachute.
type JumpAction struct {
	Target *Vec3 `msgpack:"targetPosition,omitempty"`
}

func (JumpAction) Kind() ActionKind { return ActionJump }

func (a JumpAction) Valid() bool {
	return a.Target == nil || a.Target.IsFinite()
}

// AttackAction aims at exactly one of a player or a world position.
type AttackAction struct {
	TargetID   string `msgpack:"targetId,omitempty"`
	Position   *Vec3  `msgpack:"position,omitempty"`
	WeaponSlot int    `msgpack:"weaponSlot"`
}

func (AttackAction) Kind() ActionKind { return ActionAttack }

func (a AttackAction) Valid() bool {
	hasTarget := a.TargetID != ""
	hasPos := a.Position != nil
	if hasTarget == hasPos {
		return false
	}
	if hasPos && !a.Position.IsFinite() {
		return false
	}
	return validSlot(a.WeaponSlot)
}

type ReloadAction struct {
	WeaponSlot int `msgpack:"weaponSlot"`
}

func (ReloadAction) Kind() ActionKind { return ActionReload }

func (a ReloadAction) Valid() bool { return validSlot(a.WeaponSlot) }

type InteractAction struct {
	TargetID string       `msgpack:"targetId"`
	Action   InteractKind `msgpack:"action"`
}

func (InteractAction) Kind() ActionKind { return ActionInteract }

func (a InteractAction) Valid() bool {
	switch a.Action {
	case InteractExitVehicle:
		return true
	case InteractPickupLoot, InteractEnterVehicle, InteractOpenDoor:
		return a.TargetID != ""
	default:
		return false
	}
}

type ConsumeAction struct {
	ItemID string `msgpack:"itemId"`
}

func (ConsumeAction) Kind() ActionKind { return ActionConsume }

func (a ConsumeAction) Valid() bool { return a.ItemID != "" }

type VehicleAction struct {
	Action    VehicleActionKind `msgpack:"action"`
	Direction Vec3              `msgpack:"direction"`
	Magnitude float64           `msgpack:"magnitude"`
}

func (VehicleAction) Kind() ActionKind { return ActionVehicle }

func (a VehicleAction) Valid() bool {
	switch a.Action {
	case VehicleHorn:
		return true
	case VehicleDrive:
		return a.Direction.IsFinite() && a.Magnitude >= 0 && a.Magnitude <= 1
	default:
		return false
	}
}

type ReviveAction struct {
	TargetID string `msgpack:"targetPlayerId"`
}

func (ReviveAction) Kind() ActionKind { return ActionRevive }

func (a ReviveAction) Valid() bool { return a.TargetID != "" }

// SpectateAction picks a player to follow once eliminated. An empty target
// lets the server choose.
type SpectateAction struct {
	TargetID string `msgpack:"targetPlayerId,omitempty"`
}

func (SpectateAction) Kind() ActionKind { return ActionSpectate }

func (SpectateAction) Valid() bool { return true }

func validSlot(slot int) bool {
	return slot == SlotPrimary || slot == SlotSecondary
}
