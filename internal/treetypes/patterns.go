package treetypes

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxStage applies when a type is neither loaded nor in the fallback table.
const DefaultMaxStage = 5

// Match is a fallback classification result.
type Match struct {
	Type     string
	MaxStage int
}

// namePattern matches a normalized node or file name. exclude, when set,
// rejects a match position if the text after it matches (RE2 has no
// negative look-ahead).
type namePattern struct {
	include  *regexp.Regexp
	exclude  *regexp.Regexp
	typ      string
	maxStage int
}

func pattern(include, exclude, typ string, maxStage int) namePattern {
	p := namePattern{include: regexp.MustCompile(include), typ: typ, maxStage: maxStage}
	if exclude != "" {
		p.exclude = regexp.MustCompile(exclude)
	}
	return p
}

func (p namePattern) matches(s string) bool {
	if p.exclude == nil {
		return p.include.MatchString(s)
	}
	for _, loc := range p.include.FindAllStringIndex(s, -1) {
		if !p.exclude.MatchString(s[loc[1]:]) {
			return true
		}
	}
	return false
}

// patterns is evaluated top to bottom and the first hit wins. Species-specific
// entries must stay above the generic fallbacks at the end (birch vs
// betulaErmanii, pine vs pinusSylvestris/pinusTabuliformis).
var patterns = []namePattern{
	pattern(`americanelm`, "", "americanElm", 5),
	pattern(`aspen`, "", "aspen", 6),
	pattern(`beech`, "", "beech", 6),
	pattern(`betulaermanii|ermanii`, "", "betulaErmanii", 4),
	pattern(`birch`, `ermanii`, "birch", 5),
	pattern(`boxelder`, "", "boxelder", 3),
	pattern(`cherry`, "", "cherry", 4),
	pattern(`chineseelm`, "", "chineseElm", 4),
	pattern(`downyserviceberry|serviceberry`, "", "downyServiceBerry", 3),
	pattern(`goldenrain`, "", "goldenRain", 4),
	pattern(`japanesezelkova|zelkova`, "", "japaneseZelkova", 4),
	pattern(`lodgepolepine`, "", "lodgepolePine", 3),
	pattern(`maple`, "", "maple", 5),
	pattern(`northerncatalpa|catalpa`, "", "northernCatalpa", 4),
	pattern(`oak`, "", "oak", 5),
	pattern(`pinussylvestris|scotspine|scots_pine`, "", "pinusSylvestris", 5),
	pattern(`pinustabuliformis|chinesepine`, "", "pinusTabuliformis", 5),
	pattern(`poplar`, "", "poplar", 5),
	pattern(`shagbarkhickory|hickory`, "", "shagbarkHickory", 4),
	pattern(`spruce`, "", "spruce", 5),
	pattern(`tiliaamurensis|limetree`, "", "tiliaAmurensis", 4),
	pattern(`linden`, `station`, "tiliaAmurensis", 4),
	pattern(`willow`, "", "willow", 5),
	pattern(`pine`, `sylvestris|tabuliformis`, "lodgepolePine", 3),
}

// fallbackMaxStages is used for types without a loaded descriptor.
var fallbackMaxStages = map[string]int{
	"AMERICANELM":       5,
	"ASPEN":             6,
	"BEECH":             6,
	"BETULAERMANII":     4,
	"BIRCH":             5,
	"BOXELDER":          3,
	"CHERRY":            4,
	"CHINESEELM":        4,
	"DOWNYSERVICEBERRY": 3,
	"GOLDENRAIN":        4,
	"JAPANESEZELKOVA":   4,
	"LODGEPOLEPINE":     3,
	"MAPLE":             5,
	"NORTHERNCATALPA":   4,
	"OAK":               5,
	"PINUSSYLVESTRIS":   5,
	"PINUSTABULIFORMIS": 5,
	"POPLAR":            5,
	"SHAGBARKHICKORY":   4,
	"SPRUCE":            5,
	"TILIAAMURENSIS":    4,
	"WILLOW":            5,
}

var nameSeparators = strings.NewReplacer("_", "", "-", "", " ", "")

// Classify detects a tree type from a node or file name.
func Classify(name string) (Match, bool) {
	norm := nameSeparators.Replace(strings.ToLower(name))
	for _, p := range patterns {
		if p.matches(norm) {
			return Match{Type: p.typ, MaxStage: p.maxStage}, true
		}
	}
	return Match{}, false
}

var (
	stageToken     = regexp.MustCompile(`stage_?(\d+)`)
	variationToken = regexp.MustCompile(`var_?(\d+)`)
)

// StageTokens extracts "stageNN" and "varNN" numbers from a name.
func StageTokens(name string) (stage, variation int, hasStage, hasVariation bool) {
	lower := strings.ToLower(name)
	stage, hasStage = firstNumber(stageToken, lower)
	variation, hasVariation = firstNumber(variationToken, lower)
	return stage, variation, hasStage, hasVariation
}

func firstNumber(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
