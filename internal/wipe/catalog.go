package wipe

import (
	"errors"
	"fmt"
)

// PatternKind определяет тип паттерна одного прохода
type PatternKind int

const (
	PatternZeros PatternKind = iota
	PatternOnes
	PatternFixed
	PatternRandom
)

func (k PatternKind) String() string {
	switch k {
	case PatternZeros:
		return "zeros"
	case PatternOnes:
		return "ones"
	case PatternFixed:
		return "fixed"
	case PatternRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseKind — обратное преобразование к String
func ParseKind(s string) (PatternKind, error) {
	switch s {
	case "zeros":
		return PatternZeros, nil
	case "ones":
		return PatternOnes, nil
	case "fixed":
		return PatternFixed, nil
	case "random":
		return PatternRandom, nil
	default:
		return 0, fmt.Errorf("неизвестный тип паттерна: %q", s)
	}
}

// Deterministic сообщает, воспроизводим ли паттерн.
// Случайные проходы проверяются только на читаемость.
func (k PatternKind) Deterministic() bool {
	return k != PatternRandom
}

// PassSpec описывает один проход метода затирания
type PassSpec struct {
	Number      int
	Kind        PatternKind
	Seq         []byte // только для PatternFixed
	Description string
}

// Method — метод затирания: упорядоченный список проходов
type Method struct {
	ID          string
	Name        string
	Description string
	Passes      []PassSpec
}

// ErrUnknownMethod возвращается для нераспознанного идентификатора метода
var ErrUnknownMethod = errors.New("неизвестный метод затирания")

// gutmannTable — фиксированная таблица из 27 паттернов для проходов 5–31
// метода Гутмана. Порядок обязателен: им проверяется соответствие методу.
var gutmannTable = [][]byte{
	{0x55},
	{0xAA},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x00},
	{0x11},
	{0x22},
	{0x33},
	{0x44},
	{0x55},
	{0x66},
	{0x77},
	{0x88},
	{0x99},
	{0xAA},
	{0xBB},
	{0xCC},
	{0xDD},
	{0xEE},
	{0xFF},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x6D, 0xB6, 0xDB},
	{0xB6, 0xDB, 0x6D},
	{0xDB, 0x6D, 0xB6},
}

// Resolve возвращает метод по идентификатору
func Resolve(id string) (Method, error) {
	switch id {
	case "quick":
		return Method{
			ID:          "quick",
			Name:        "Quick",
			Description: "Один проход нулями",
			Passes: []PassSpec{
				{Number: 1, Kind: PatternZeros, Description: "нули"},
			},
		}, nil

	case "random":
		return Method{
			ID:          "random",
			Name:        "Random",
			Description: "Один проход криптографически случайными данными",
			Passes: []PassSpec{
				{Number: 1, Kind: PatternRandom, Description: "случайные данные"},
			},
		}, nil

	case "dod":
		return Method{
			ID:          "dod",
			Name:        "DoD 5220.22-M",
			Description: "Три прохода: нули, единицы, случайные данные",
			Passes: []PassSpec{
				{Number: 1, Kind: PatternZeros, Description: "нули"},
				{Number: 2, Kind: PatternOnes, Description: "единицы (0xFF)"},
				{Number: 3, Kind: PatternRandom, Description: "случайные данные"},
			},
		}, nil

	case "gutmann":
		return gutmannMethod(), nil

	default:
		return Method{}, fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}
}

// gutmannMethod строит 35-проходный метод Гутмана:
// проходы 1–4 и 32–35 случайные, проходы 5–31 циклически берут
// паттерн из таблицы с индексом (номер − 5) mod длина таблицы.
func gutmannMethod() Method {
	passes := make([]PassSpec, 0, 35)

	for n := 1; n <= 4; n++ {
		passes = append(passes, PassSpec{
			Number:      n,
			Kind:        PatternRandom,
			Description: "случайные данные",
		})
	}

	for n := 5; n <= 31; n++ {
		seq := gutmannTable[(n-5)%len(gutmannTable)]
		passes = append(passes, PassSpec{
			Number:      n,
			Kind:        PatternFixed,
			Seq:         seq,
			Description: fmt.Sprintf("фиксированный паттерн % X", seq),
		})
	}

	for n := 32; n <= 35; n++ {
		passes = append(passes, PassSpec{
			Number:      n,
			Kind:        PatternRandom,
			Description: "случайные данные",
		})
	}

	return Method{
		ID:          "gutmann",
		Name:        "Gutmann",
		Description: "35 проходов по методу Питера Гутмана",
		Passes:      passes,
	}
}

// MethodIDs возвращает идентификаторы всех методов каталога
func MethodIDs() []string {
	return []string{"quick", "dod", "gutmann", "random"}
}

// Methods возвращает все методы каталога
func Methods() []Method {
	out := make([]Method, 0, 4)
	for _, id := range MethodIDs() {
		m, _ := Resolve(id)
		out = append(out, m)
	}
	return out
}
