// internal/models/components.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ComponentKind tells which of the three part schemas a Components value
// carries. The schemas share no slots.
type ComponentKind string

const (
	KindBeybladeX  ComponentKind = "beyblade_x"
	KindBurst      ComponentKind = "burst"
	KindMetalFight ComponentKind = "metal_fight"
)

// Slot keys as they appear on the wire.
const (
	SlotBlade          = "blade"
	SlotRatchet        = "ratchet"
	SlotBit            = "bit"
	SlotLayer          = "layer"
	SlotDisk           = "disk"
	SlotDriver         = "driver"
	SlotFaceBolt       = "face_bolt"
	SlotEnergyRing     = "energy_ring"
	SlotFusionWheel    = "fusion_wheel"
	SlotSpinTrack      = "spin_track"
	SlotPerformanceTip = "performance_tip"
)

var kindSlots = map[ComponentKind][]string{
	KindBeybladeX:  {SlotBlade, SlotRatchet, SlotBit},
	KindBurst:      {SlotLayer, SlotDisk, SlotDriver},
	KindMetalFight: {SlotFaceBolt, SlotEnergyRing, SlotFusionWheel, SlotSpinTrack, SlotPerformanceTip},
}

// QuadStrike era names for the Burst slots.
var burstAliases = map[string]string{
	"energy_layer": SlotLayer,
	"forge_disc":   SlotDisk,
}

type XParts struct {
	Blade   string
	Ratchet string
	Bit     string
}

type BurstParts struct {
	Layer  string
	Disk   string
	Driver string
}

type MetalFightParts struct {
	FaceBolt       string
	EnergyRing     string
	FusionWheel    string
	SpinTrack      string
	PerformanceTip string
}

// Components is a tagged union: exactly one of X, Burst or MetalFight is set
// and matches Kind. Descriptions is keyed by slot.
type Components struct {
	Kind         ComponentKind
	X            *XParts
	Burst        *BurstParts
	MetalFight   *MetalFightParts
	Descriptions map[string]string
}

type Part struct {
	Slot        string `json:"slot"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func NewXComponents(blade, ratchet, bit string) Components {
	return Components{Kind: KindBeybladeX, X: &XParts{Blade: blade, Ratchet: ratchet, Bit: bit}}
}

func NewBurstComponents(layer, disk, driver string) Components {
	return Components{Kind: KindBurst, Burst: &BurstParts{Layer: layer, Disk: disk, Driver: driver}}
}

func NewMetalFightComponents(faceBolt, energyRing, fusionWheel, spinTrack, performanceTip string) Components {
	return Components{Kind: KindMetalFight, MetalFight: &MetalFightParts{
		FaceBolt:       faceBolt,
		EnergyRing:     energyRing,
		FusionWheel:    fusionWheel,
		SpinTrack:      spinTrack,
		PerformanceTip: performanceTip,
	}}
}

// Slots returns the slot keys of the active schema in display order.
func (c Components) Slots() []string {
	return kindSlots[c.Kind]
}

// Get returns the part name in slot, or "" when the slot is not part of the
// active schema.
func (c Components) Get(slot string) string {
	switch c.Kind {
	case KindBeybladeX:
		if c.X == nil {
			return ""
		}
		switch slot {
		case SlotBlade:
			return c.X.Blade
		case SlotRatchet:
			return c.X.Ratchet
		case SlotBit:
			return c.X.Bit
		}
	case KindBurst:
		if c.Burst == nil {
			return ""
		}
		switch slot {
		case SlotLayer:
			return c.Burst.Layer
		case SlotDisk:
			return c.Burst.Disk
		case SlotDriver:
			return c.Burst.Driver
		}
	case KindMetalFight:
		if c.MetalFight == nil {
			return ""
		}
		switch slot {
		case SlotFaceBolt:
			return c.MetalFight.FaceBolt
		case SlotEnergyRing:
			return c.MetalFight.EnergyRing
		case SlotFusionWheel:
			return c.MetalFight.FusionWheel
		case SlotSpinTrack:
			return c.MetalFight.SpinTrack
		case SlotPerformanceTip:
			return c.MetalFight.PerformanceTip
		}
	}
	return ""
}

// Parts lists the populated slots in display order.
func (c Components) Parts() []Part {
	var parts []Part
	for _, slot := range c.Slots() {
		name := strings.TrimSpace(c.Get(slot))
		if name == "" {
			continue
		}
		parts = append(parts, Part{Slot: slot, Name: name, Description: c.Descriptions[slot]})
	}
	return parts
}

func (c Components) IsZero() bool {
	return len(c.Parts()) == 0
}

// SlotCategory groups equivalent slots across schemas for the component
// library: a Burst layer sits with Beyblade X blades, and so on. Metal Fight
// slots keep their own category.
func SlotCategory(slot string) string {
	switch slot {
	case SlotBlade, SlotLayer:
		return SlotBlade
	case SlotRatchet, SlotDisk:
		return SlotRatchet
	case SlotBit, SlotDriver:
		return SlotBit
	}
	return slot
}

// KindForSeries returns the schema used by a canonical series name.
func KindForSeries(series string) (ComponentKind, bool) {
	switch series {
	case "Beyblade X":
		return KindBeybladeX, true
	case "Beyblade Burst":
		return KindBurst, true
	case "Metal Fight":
		return KindMetalFight, true
	}
	return "", false
}

func (c Components) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 8)
	if c.Kind != "" {
		out["kind"] = c.Kind
	}
	for _, slot := range c.Slots() {
		if name := c.Get(slot); name != "" {
			out[slot] = name
		}
	}
	if len(c.Descriptions) > 0 {
		out["descriptions"] = c.Descriptions
	}
	return json.Marshal(out)
}

func (c *Components) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Components{}
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("components: %w", err)
	}

	*c = ComponentsFromMap(raw, "")
	return nil
}

// ComponentsFromMap builds a Components value from a loosely typed map such
// as model output or a legacy row. An explicit "kind" wins; otherwise the
// schema is detected from the keys present. When seriesHint names a known
// series whose schema differs from the detected three-slot schema, the parts
// are moved across positionally (some sources label Burst parts as
// blade/ratchet/bit).
func ComponentsFromMap(raw map[string]interface{}, seriesHint string) Components {
	if len(raw) == 0 {
		return Components{}
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		if key == "descriptions" || key == "kind" {
			continue
		}
		if s := coerceString(value); s != "" {
			values[key] = s
		}
	}
	for alias, slot := range burstAliases {
		if values[slot] == "" && values[alias] != "" {
			values[slot] = values[alias]
		}
	}

	preferred, hasPreferred := KindForSeries(seriesHint)

	kind := ComponentKind(coerceString(raw["kind"]))
	if _, known := kindSlots[kind]; !known {
		kind = detectKind(values, preferred)
	}

	c := Components{Kind: kind, Descriptions: coerceStringMap(raw["descriptions"])}

	slots := kindSlots[kind]
	if hasPreferred && preferred != kind && len(slots) == 3 && len(kindSlots[preferred]) == 3 {
		for i, slot := range kindSlots[preferred] {
			if values[slot] == "" {
				values[slot] = values[slots[i]]
			}
			if desc, ok := c.Descriptions[slots[i]]; ok {
				if _, exists := c.Descriptions[slot]; !exists {
					c.Descriptions[slot] = desc
				}
				delete(c.Descriptions, slots[i])
			}
		}
		kind = preferred
		c.Kind = kind
	}

	switch kind {
	case KindBeybladeX:
		c.X = &XParts{Blade: values[SlotBlade], Ratchet: values[SlotRatchet], Bit: values[SlotBit]}
	case KindBurst:
		driver := values[SlotDriver]
		if driver == "" {
			driver = values[SlotPerformanceTip]
		}
		c.Burst = &BurstParts{Layer: values[SlotLayer], Disk: values[SlotDisk], Driver: driver}
	case KindMetalFight:
		c.MetalFight = &MetalFightParts{
			FaceBolt:       values[SlotFaceBolt],
			EnergyRing:     values[SlotEnergyRing],
			FusionWheel:    values[SlotFusionWheel],
			SpinTrack:      values[SlotSpinTrack],
			PerformanceTip: values[SlotPerformanceTip],
		}
	default:
		return Components{}
	}

	if len(c.Descriptions) == 0 {
		c.Descriptions = nil
	}
	return c
}

func detectKind(values map[string]string, preferred ComponentKind) ComponentKind {
	has := func(slots ...string) bool {
		for _, slot := range slots {
			if values[slot] != "" {
				return true
			}
		}
		return false
	}

	switch {
	case has(SlotBlade, SlotRatchet, SlotBit):
		return KindBeybladeX
	case has(SlotLayer, SlotDisk, SlotDriver):
		return KindBurst
	case has(SlotFaceBolt, SlotEnergyRing, SlotFusionWheel, SlotSpinTrack):
		return KindMetalFight
	case has(SlotPerformanceTip):
		if preferred == KindBurst {
			return KindBurst
		}
		return KindMetalFight
	}
	return ""
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func coerceStringMap(value interface{}) map[string]string {
	raw, ok := value.(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for key, v := range raw {
		if s := coerceString(v); s != "" {
			out[key] = s
		}
	}
	return out
}

type Specs struct {
	Weight  string `json:"weight,omitempty"`
	Attack  string `json:"attack,omitempty"`
	Defense string `json:"defense,omitempty"`
	Stamina string `json:"stamina,omitempty"`
}

func (s Specs) IsZero() bool {
	return s == Specs{}
}

// SpecsFromMap reads ratings that may arrive as strings or numbers.
func SpecsFromMap(raw map[string]interface{}) Specs {
	return Specs{
		Weight:  coerceString(raw["weight"]),
		Attack:  coerceString(raw["attack"]),
		Defense: coerceString(raw["defense"]),
		Stamina: coerceString(raw["stamina"]),
	}
}
