// Carp performance data parser. The file is plain text with
// alternating label and value lines. Each label carries an ordinal in
// parentheses that identifies the field regardless of label wording.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Carp format errors.
var (
	ErrInvalidCarpValue = errors.New("invalid carp value")
	ErrDanglingCarpLabel = errors.New("carp label without value")
)

var (
	carpOrdinalRe = regexp.MustCompile(`\((\d+)\)`)
	// Some files carry typos like "0..5" in numeric values.
	carpRepeatedDots = regexp.MustCompile(`\.{2,}`)
)

// Performance is the parsed vehicle performance description. List
// fields keep the order of the file.
type Performance struct {
	SerialNumber   int
	Classification int
	Mass           float64
	NumGearsManual int
	GearShiftDelay int
	ShiftBlipRpm   []int
	BrakeBlipRpm   []int

	VelocityToRpmManual     []float64
	VelocityToRpmAutomatic  []float64
	GearRatiosManual        []float64
	GearRatiosAutomatic     []float64
	GearEfficiencyManual    []float64
	GearEfficiencyAutomatic []float64
	TorqueCurve             []float64
	FinalGearManual         float64
	FinalGearAutomatic      float64
	NumGearsAutomatic       int
	EngineMinRpm            int
	EngineRedlineRpm        int
	MaxVelocity             float64
	TopSpeedCap             float64
	FrontDriveRatio         float64

	AntilockBrakes          bool
	MaxBrakingDeceleration  float64
	FrontBrakeBias          float64
	GasIncreasingCurve      []int
	GasDecreasingCurve      []int
	BrakeIncreasingCurve    []float64
	BrakeDecreasingCurve    []float64
	WheelBase               float64
	FrontGripBias           float64
	PowerSteering           bool
	MinSteeringAcceleration float64
	TurnInRamp              float64
	TurnOutRamp             float64
	LateralGripMultiplier   float64
	DownforceMultiplier     float64
	GasOffFactor            float64
	GTransferFactor         float64
	TurningCircleRadius     float64
	TireSpecsFront          []int
	TireSpecsRear           []int
	TireWear                float64

	SlideMultiplier        float64
	SpinVelocityCap        float64
	SlideVelocityCap       float64
	SlideAssistanceFactor  int
	PushFactor             int
	LowTurnFactor          float64
	HighTurnFactor         float64
	PitchRollFactor        float64
	RoadBumpinessFactor    float64
	SpoilerFunctionType    bool
	SpoilerActivationSpeed float64
	GradualTurnCutoff      int
	MediumTurnCutoff       int
	SharpTurnCutoff        int
	MediumTurnSpeedMod     float64
	SharpTurnSpeedMod      float64
	ExtremeTurnSpeedMod    float64
	SubdivideLevel         int
	CameraArm              float64

	BodyDamage           float64
	EngineDamage         float64
	SuspensionDamage     float64
	EngineTuning         float64
	BrakeBalance         float64
	SteeringSpeed        float64
	GearRatFactor        float64
	SuspensionStiffness  float64
	AeroFactor           float64
	TireFactor           float64
	AIAccelerationTables [8][]float64

	UndersteerGradient float64
}

// carpFields maps field ordinals to setters. The automatic-gearbox
// fields live at 75 to 79 with the understeer gradient at 80, not in
// sequence with their manual counterparts.
var carpFields = map[int]func(*Performance, string) error{
	0:  func(p *Performance, v string) error { return setInt(&p.SerialNumber, v) },
	1:  func(p *Performance, v string) error { return setInt(&p.Classification, v) },
	2:  func(p *Performance, v string) error { return setFloat(&p.Mass, v) },
	3:  func(p *Performance, v string) error { return setInt(&p.NumGearsManual, v) },
	4:  func(p *Performance, v string) error { return setInt(&p.GearShiftDelay, v) },
	5:  func(p *Performance, v string) error { return setIntList(&p.ShiftBlipRpm, v) },
	6:  func(p *Performance, v string) error { return setIntList(&p.BrakeBlipRpm, v) },
	7:  func(p *Performance, v string) error { return setFloatList(&p.VelocityToRpmManual, v) },
	8:  func(p *Performance, v string) error { return setFloatList(&p.GearRatiosManual, v) },
	9:  func(p *Performance, v string) error { return setFloatList(&p.GearEfficiencyManual, v) },
	10: func(p *Performance, v string) error { return setFloatList(&p.TorqueCurve, v) },
	11: func(p *Performance, v string) error { return setFloat(&p.FinalGearManual, v) },
	12: func(p *Performance, v string) error { return setInt(&p.EngineMinRpm, v) },
	13: func(p *Performance, v string) error { return setInt(&p.EngineRedlineRpm, v) },
	14: func(p *Performance, v string) error { return setFloat(&p.MaxVelocity, v) },
	15: func(p *Performance, v string) error { return setFloat(&p.TopSpeedCap, v) },
	16: func(p *Performance, v string) error { return setFloat(&p.FrontDriveRatio, v) },
	17: func(p *Performance, v string) error { return setBool(&p.AntilockBrakes, v) },
	18: func(p *Performance, v string) error { return setFloat(&p.MaxBrakingDeceleration, v) },
	19: func(p *Performance, v string) error { return setFloat(&p.FrontBrakeBias, v) },
	20: func(p *Performance, v string) error { return setIntList(&p.GasIncreasingCurve, v) },
	21: func(p *Performance, v string) error { return setIntList(&p.GasDecreasingCurve, v) },
	22: func(p *Performance, v string) error { return setFloatList(&p.BrakeIncreasingCurve, v) },
	23: func(p *Performance, v string) error { return setFloatList(&p.BrakeDecreasingCurve, v) },
	24: func(p *Performance, v string) error { return setFloat(&p.WheelBase, v) },
	25: func(p *Performance, v string) error { return setFloat(&p.FrontGripBias, v) },
	26: func(p *Performance, v string) error { return setBool(&p.PowerSteering, v) },
	27: func(p *Performance, v string) error { return setFloat(&p.MinSteeringAcceleration, v) },
	28: func(p *Performance, v string) error { return setFloat(&p.TurnInRamp, v) },
	29: func(p *Performance, v string) error { return setFloat(&p.TurnOutRamp, v) },
	30: func(p *Performance, v string) error { return setFloat(&p.LateralGripMultiplier, v) },
	31: func(p *Performance, v string) error { return setFloat(&p.DownforceMultiplier, v) },
	32: func(p *Performance, v string) error { return setFloat(&p.GasOffFactor, v) },
	33: func(p *Performance, v string) error { return setFloat(&p.GTransferFactor, v) },
	34: func(p *Performance, v string) error { return setFloat(&p.TurningCircleRadius, v) },
	35: func(p *Performance, v string) error { return setIntList(&p.TireSpecsFront, v) },
	36: func(p *Performance, v string) error { return setIntList(&p.TireSpecsRear, v) },
	37: func(p *Performance, v string) error { return setFloat(&p.TireWear, v) },
	38: func(p *Performance, v string) error { return setFloat(&p.SlideMultiplier, v) },
	39: func(p *Performance, v string) error { return setFloat(&p.SpinVelocityCap, v) },
	40: func(p *Performance, v string) error { return setFloat(&p.SlideVelocityCap, v) },
	41: func(p *Performance, v string) error { return setInt(&p.SlideAssistanceFactor, v) },
	42: func(p *Performance, v string) error { return setInt(&p.PushFactor, v) },
	43: func(p *Performance, v string) error { return setFloat(&p.LowTurnFactor, v) },
	44: func(p *Performance, v string) error { return setFloat(&p.HighTurnFactor, v) },
	45: func(p *Performance, v string) error { return setFloat(&p.PitchRollFactor, v) },
	46: func(p *Performance, v string) error { return setFloat(&p.RoadBumpinessFactor, v) },
	47: func(p *Performance, v string) error { return setBool(&p.SpoilerFunctionType, v) },
	48: func(p *Performance, v string) error { return setFloat(&p.SpoilerActivationSpeed, v) },
	49: func(p *Performance, v string) error { return setInt(&p.GradualTurnCutoff, v) },
	50: func(p *Performance, v string) error { return setInt(&p.MediumTurnCutoff, v) },
	51: func(p *Performance, v string) error { return setInt(&p.SharpTurnCutoff, v) },
	52: func(p *Performance, v string) error { return setFloat(&p.MediumTurnSpeedMod, v) },
	53: func(p *Performance, v string) error { return setFloat(&p.SharpTurnSpeedMod, v) },
	54: func(p *Performance, v string) error { return setFloat(&p.ExtremeTurnSpeedMod, v) },
	55: func(p *Performance, v string) error { return setInt(&p.SubdivideLevel, v) },
	56: func(p *Performance, v string) error { return setFloat(&p.CameraArm, v) },
	57: func(p *Performance, v string) error { return setFloat(&p.BodyDamage, v) },
	58: func(p *Performance, v string) error { return setFloat(&p.EngineDamage, v) },
	59: func(p *Performance, v string) error { return setFloat(&p.SuspensionDamage, v) },
	60: func(p *Performance, v string) error { return setFloat(&p.EngineTuning, v) },
	61: func(p *Performance, v string) error { return setFloat(&p.BrakeBalance, v) },
	62: func(p *Performance, v string) error { return setFloat(&p.SteeringSpeed, v) },
	63: func(p *Performance, v string) error { return setFloat(&p.GearRatFactor, v) },
	64: func(p *Performance, v string) error { return setFloat(&p.SuspensionStiffness, v) },
	65: func(p *Performance, v string) error { return setFloat(&p.AeroFactor, v) },
	66: func(p *Performance, v string) error { return setFloat(&p.TireFactor, v) },
	67: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[0], v) },
	68: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[1], v) },
	69: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[2], v) },
	70: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[3], v) },
	71: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[4], v) },
	72: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[5], v) },
	73: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[6], v) },
	74: func(p *Performance, v string) error { return setFloatList(&p.AIAccelerationTables[7], v) },
	75: func(p *Performance, v string) error { return setInt(&p.NumGearsAutomatic, v) },
	76: func(p *Performance, v string) error { return setFloatList(&p.VelocityToRpmAutomatic, v) },
	77: func(p *Performance, v string) error { return setFloatList(&p.GearRatiosAutomatic, v) },
	78: func(p *Performance, v string) error { return setFloatList(&p.GearEfficiencyAutomatic, v) },
	79: func(p *Performance, v string) error { return setFloat(&p.FinalGearAutomatic, v) },
	80: func(p *Performance, v string) error { return setFloat(&p.UndersteerGradient, v) },
}

// ParsePerformance parses vehicle performance data from raw text.
// Fields whose ordinal is not recognized are skipped.
func ParsePerformance(data []byte) (*Performance, error) {
	result := &Performance{}
	scanner := bufio.NewScanner(bytes.NewReader(data))

	pendingOrdinal := -1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if pendingOrdinal < 0 {
			// Labels may contain other parenthesized numbers, like
			// "Torque curve (0-8000 rpm)(10)". The ordinal is the last.
			matches := carpOrdinalRe.FindAllStringSubmatch(line, -1)
			if matches == nil {
				continue
			}
			ordinal, err := strconv.Atoi(matches[len(matches)-1][1])
			if err != nil {
				continue
			}
			pendingOrdinal = ordinal
			continue
		}
		if setter, ok := carpFields[pendingOrdinal]; ok {
			if err := setter(result, line); err != nil {
				return nil, fmt.Errorf("field %d: %w", pendingOrdinal, err)
			}
		}
		pendingOrdinal = -1
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning carp data: %w", err)
	}
	if pendingOrdinal >= 0 {
		return nil, fmt.Errorf("%w: field %d", ErrDanglingCarpLabel, pendingOrdinal)
	}
	return result, nil
}

// ParsePerformanceFile parses vehicle performance data from disk.
func ParsePerformanceFile(path string) (*Performance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading carp file: %w", err)
	}
	return ParsePerformance(data)
}

// sanitizeNumber collapses repeated decimal points before parsing.
func sanitizeNumber(v string) string {
	return carpRepeatedDots.ReplaceAllString(strings.TrimSpace(v), ".")
}

func setInt(dst *int, v string) error {
	value, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCarpValue, v)
	}
	*dst = value
	return nil
}

func setFloat(dst *float64, v string) error {
	value, err := strconv.ParseFloat(sanitizeNumber(v), 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCarpValue, v)
	}
	*dst = value
	return nil
}

func setBool(dst *bool, v string) error {
	var value int
	if err := setInt(&value, v); err != nil {
		return err
	}
	*dst = value != 0
	return nil
}

func setIntList(dst *[]int, v string) error {
	var values []int
	for _, field := range splitList(v) {
		var value int
		if err := setInt(&value, field); err != nil {
			return err
		}
		values = append(values, value)
	}
	*dst = values
	return nil
}

func setFloatList(dst *[]float64, v string) error {
	var values []float64
	for _, field := range splitList(v) {
		var value float64
		if err := setFloat(&value, field); err != nil {
			return err
		}
		values = append(values, value)
	}
	*dst = values
	return nil
}

func splitList(v string) []string {
	var fields []string
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}
