package ui

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const MAX_HISTORY = 32

// TextInput is the one-line command prompt of the viewer. Up and Down walk
// through previously submitted lines.
type TextInput struct {
	Text     string
	Prompt   string
	IsActive bool
	X, Y     int
	Width    int
	Height   int
	OnSubmit func(string)

	history []string
	cursor  int
}

func NewTextInput(x, y, width, height int, onSubmit func(string)) *TextInput {
	return &TextInput{
		Prompt:   "> ",
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		OnSubmit: onSubmit,
	}
}

func (ti *TextInput) Update() {
	if !ti.IsActive {
		return
	}

	ti.Text += string(ebiten.AppendInputChars(nil))

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(ti.Text) > 0 {
		ti.Text = ti.Text[:len(ti.Text)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		ti.Text = ti.Recall(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		ti.Text = ti.Recall(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		ti.Text = ""
		ti.IsActive = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		ti.Submit()
	}
}

// Submit hands the current line to OnSubmit and records it in the history.
func (ti *TextInput) Submit() {
	line := strings.TrimSpace(ti.Text)
	ti.Text = ""
	if line == "" {
		return
	}
	ti.history = append(ti.history, line)
	if len(ti.history) > MAX_HISTORY {
		ti.history = ti.history[len(ti.history)-MAX_HISTORY:]
	}
	ti.cursor = len(ti.history)
	if ti.OnSubmit != nil {
		ti.OnSubmit(line)
	}
}

// Recall moves through the history by step and returns the line under the
// cursor; past the newest entry it returns an empty line.
func (ti *TextInput) Recall(step int) string {
	ti.cursor = max(0, min(len(ti.history), ti.cursor+step))
	if ti.cursor == len(ti.history) {
		return ""
	}
	return ti.history[ti.cursor]
}

func (ti *TextInput) Draw(screen *ebiten.Image) {
	x, y := float32(ti.X), float32(ti.Y)
	w, h := float32(ti.Width), float32(ti.Height)

	bgColor := color.RGBA{50, 50, 50, 255}
	if ti.IsActive {
		bgColor = color.RGBA{80, 80, 80, 255}
	}
	vector.DrawFilledRect(screen, x, y, w, h, bgColor, false)
	vector.StrokeRect(screen, x, y, w, h, 1, color.White, false)

	displayTxt := ti.Prompt + ti.Text
	if ti.IsActive {
		displayTxt += "_"
	}
	ebitenutil.DebugPrintAt(screen, displayTxt, ti.X+5, ti.Y+(ti.Height-16)/2)
}

// IsClicked reports whether the point lies inside the input box.
func (ti *TextInput) IsClicked(mouseX, mouseY int) bool {
	return mouseX >= ti.X && mouseX <= ti.X+ti.Width &&
		mouseY >= ti.Y && mouseY <= ti.Y+ti.Height
}
