package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/addsynth-go"
)

const (
	windowW      = 1100
	windowH      = 720
	minWindowW   = 980
	minWindowH   = 680
	uiSampleRate = 48000

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	sliderCount = 32
)

var (
	bgColor     = color.RGBA{192, 192, 192, 255}
	panelColor  = color.RGBA{192, 192, 192, 255}
	borderColor = color.RGBA{128, 128, 128, 255}
	buttonColor = color.RGBA{192, 192, 192, 255}

	// 3D bevel colors for old-school embossed look.
	bevelLight  = color.RGBA{255, 255, 255, 255}
	bevelDarker = color.RGBA{64, 64, 64, 255}

	// Sunken panel interior.
	sunkenBgColor = color.RGBA{24, 24, 32, 255}

	// Slider fill accent.
	sliderFillColor = color.RGBA{0, 0, 128, 255}

	waveColor = color.RGBA{80, 200, 255, 220}
)

// Envelope slider ranges. Times are seconds, sustain is a level.
var (
	adsrLabels = [4]string{"A", "D", "S", "R"}
	adsrMin    = [4]float64{0.001, 0.001, 0, 0.001}
	adsrMax    = [4]float64{2, 2, 1, 5}
)

// Two manual rows mapped like a tracker keyboard: Z..M is the lower octave
// with sharps on the home row, Q..I the one above with sharps on the digits.
var keyNoteOffsets = map[ebiten.Key]int{
	ebiten.KeyZ: 0, ebiten.KeyS: 1, ebiten.KeyX: 2, ebiten.KeyD: 3,
	ebiten.KeyC: 4, ebiten.KeyV: 5, ebiten.KeyG: 6, ebiten.KeyB: 7,
	ebiten.KeyH: 8, ebiten.KeyN: 9, ebiten.KeyJ: 10, ebiten.KeyM: 11,
	ebiten.KeyQ: 12, ebiten.Key2: 13, ebiten.KeyW: 14, ebiten.Key3: 15,
	ebiten.KeyE: 16, ebiten.KeyR: 17, ebiten.Key5: 18, ebiten.KeyT: 19,
	ebiten.Key6: 20, ebiten.KeyY: 21, ebiten.Key7: 22, ebiten.KeyU: 23,
	ebiten.KeyI: 24,
}

type game struct {
	player *addsynth.Player

	volume float64
	morph  float64
	adsr   [4]float64
	octave int

	paintingHarmonics bool
	draggingADSR      int // -1=none, 0-3=segment index
	draggingSlider    int // 0=none, 1=volume, 2=morph

	heldKeys map[ebiten.Key]int // key -> sounding MIDI note

	status    string
	statusErr bool

	waveImg *ebiten.Image
	waveW   int
	waveH   int

	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame() (*game, error) {
	pl, err := addsynth.NewPlayer(uiSampleRate)
	if err != nil {
		return nil, err
	}
	a, d, s, r := pl.Envelope()
	g := &game{
		player:       pl,
		volume:       1.0,
		adsr:         [4]float64{a, d, s, r},
		octave:       4,
		draggingADSR: -1,
		heldKeys:     make(map[ebiten.Key]int, 8),
		status:       "Ready - keys Z..M and Q..I play, arrows shift octave",
		textCache:    make(map[string]*ebiten.Image, 1024),
		viewW:        windowW,
		viewH:        windowH,
	}
	if err := pl.Start(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *game) Update() error {
	g.handleKeyboard()
	g.handleMouse()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	l := g.layoutRects()

	g.drawSunkenPanel(screen, l.harmonics)
	g.drawDarkPanel(screen, l.wave)
	g.drawPanel(screen, l.adsr)
	for i, name := range addsynth.PresetNames() {
		if i >= len(l.presets) {
			break
		}
		g.drawButton(screen, l.presets[i], name, buttonColor)
	}
	g.drawButton(screen, l.captureSrc, "Morph SRC", buttonColor)
	g.drawButton(screen, l.captureTgt, "Morph TGT", buttonColor)
	g.drawHSlider(screen, l.morph, fmt.Sprintf("Morph %d%%", int(g.morph*100+0.5)), g.morph)
	g.drawHSlider(screen, l.volume, fmt.Sprintf("Vol %d%%", int(g.volume*100+0.5)), g.volume)
	g.drawSunkenPanel(screen, l.status)

	g.drawHarmonics(screen, l.harmonics)
	g.drawWaveform(screen, l.wave)
	g.drawADSR(screen, l.adsr)
	g.drawStatus(screen, l.status)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

func (g *game) Close() { _ = g.player.Stop() }

func (g *game) handleKeyboard() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && g.octave < 7 {
		g.octave++
		g.setStatus(fmt.Sprintf("Octave: %d", g.octave))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && g.octave > 0 {
		g.octave--
		g.setStatus(fmt.Sprintf("Octave: %d", g.octave))
	}
	base := 12 * (g.octave + 1)
	for key, offset := range keyNoteOffsets {
		if inpututil.IsKeyJustPressed(key) {
			note := base + offset
			if note <= 127 {
				g.player.NoteOn(note, 0.9)
				g.heldKeys[key] = note
			}
		}
		if inpututil.IsKeyJustReleased(key) {
			if note, ok := g.heldKeys[key]; ok {
				g.player.NoteOff(note)
				delete(g.heldKeys, key)
			}
		}
	}
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case g.clickPreset(mx, my, l):
			return
		case pointInRect(mx, my, l.captureSrc):
			g.player.CaptureMorphSource()
			g.setStatus("Captured morph source")
			return
		case pointInRect(mx, my, l.captureTgt):
			g.player.CaptureMorphTarget()
			g.setStatus("Captured morph target")
			return
		case pointInRect(mx, my, l.harmonics):
			g.paintingHarmonics = true
			g.paintHarmonic(mx, my, l.harmonics)
			return
		case pointInRect(mx, my, l.adsr):
			g.draggingADSR = g.adsrFromMouse(mx, l.adsr)
			g.dragADSR(my, l.adsr)
			return
		case pointInRect(mx, my, l.morph):
			g.draggingSlider = 2
			g.updateMorphFromMouse(mx, l.morph)
			return
		case pointInRect(mx, my, l.volume):
			g.draggingSlider = 1
			g.updateVolumeFromMouse(mx, l.volume)
			return
		}
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.paintingHarmonics = false
		g.draggingADSR = -1
		g.draggingSlider = 0
	}
	if g.paintingHarmonics {
		g.paintHarmonic(mx, my, l.harmonics)
	}
	if g.draggingADSR >= 0 {
		g.dragADSR(my, l.adsr)
	}
	if g.draggingSlider == 1 {
		g.updateVolumeFromMouse(mx, l.volume)
	}
	if g.draggingSlider == 2 {
		g.updateMorphFromMouse(mx, l.morph)
	}
}

func (g *game) clickPreset(mx, my int, l uiLayout) bool {
	for i, name := range addsynth.PresetNames() {
		if i >= len(l.presets) {
			break
		}
		if pointInRect(mx, my, l.presets[i]) {
			if err := g.player.LoadPreset(name); err != nil {
				g.setError(err.Error())
			} else {
				g.setStatus("Preset: " + name)
			}
			return true
		}
	}
	return false
}

type uiLayout struct {
	harmonics  image.Rectangle
	wave       image.Rectangle
	adsr       image.Rectangle
	presets    [5]image.Rectangle
	captureSrc image.Rectangle
	captureTgt image.Rectangle
	morph      image.Rectangle
	volume     image.Rectangle
	status     image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w := g.viewW
	h := g.viewH
	if w < minWindowW {
		w = minWindowW
	}
	if h < minWindowH {
		h = minWindowH
	}

	pad := 20
	rowH := 44
	statusH := 40

	// Bottom up: status, morph/volume row, preset row.
	statusTop := h - pad - statusH
	controlsTop := statusTop - 8 - rowH
	presetsTop := controlsTop - 8 - rowH
	contentBottom := presetsTop - 12

	// Left: harmonic sliders. Right: waveform preview over the envelope.
	harmW := (w - pad*2) * 3 / 5
	harmRect := image.Rect(pad, pad, pad+harmW, contentBottom)
	rightX := harmRect.Max.X + 12
	rightW := w - rightX - pad
	waveH := (contentBottom - pad) * 2 / 5
	if waveH < 120 {
		waveH = 120
	}
	waveRect := image.Rect(rightX, pad, rightX+rightW, pad+waveH)
	adsrRect := image.Rect(rightX, waveRect.Max.Y+12, rightX+rightW, contentBottom)

	var presets [5]image.Rectangle
	bw := 110
	x := pad
	for i := range presets {
		presets[i] = image.Rect(x, presetsTop, x+bw, presetsTop+rowH)
		x += bw + 8
	}
	captureSrc := image.Rect(x, presetsTop, x+130, presetsTop+rowH)
	x += 138
	captureTgt := image.Rect(x, presetsTop, x+130, presetsTop+rowH)

	half := (w - pad*2 - 12) / 2
	morphRect := image.Rect(pad, controlsTop, pad+half, controlsTop+rowH)
	volumeRect := image.Rect(pad+half+12, controlsTop, w-pad, controlsTop+rowH)

	statusRect := image.Rect(pad, statusTop, w-pad, statusTop+statusH)

	return uiLayout{
		harmonics: harmRect, wave: waveRect, adsr: adsrRect,
		presets: presets, captureSrc: captureSrc, captureTgt: captureTgt,
		morph: morphRect, volume: volumeRect, status: statusRect,
	}
}

func harmonicsInner(rect image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X+10, rect.Min.Y+12+lineH, rect.Max.X-10, rect.Max.Y-12-lineH)
}

func (g *game) drawHarmonics(screen *ebiten.Image, rect image.Rectangle) {
	g.drawText(screen, "Harmonics", rect.Min.X+8, rect.Min.Y+6)
	inner := harmonicsInner(rect)
	bandW := inner.Dx() / sliderCount
	if bandW < 4 || inner.Dy() < 8 {
		return
	}
	for i := 0; i < sliderCount; i++ {
		bx := inner.Min.X + i*bandW
		bh := inner.Dy()

		// Groove.
		ebitenutil.DrawRect(screen, float64(bx+bandW/2-1), float64(inner.Min.Y), 2, float64(bh), bevelDarker)

		amp := g.player.HarmonicAmplitude(i)
		fillH := int(clamp(amp, 0, 1) * float64(bh))
		if fillH > 0 {
			ebitenutil.DrawRect(screen, float64(bx+1), float64(inner.Max.Y-fillH), float64(bandW-2), float64(fillH), sliderFillColor)
			ebitenutil.DrawRect(screen, float64(bx+1), float64(inner.Max.Y-fillH), float64(bandW-2), 2, bevelLight)
		}
	}
	// Sparse index labels under the bars.
	for _, n := range []int{1, 8, 16, 24, 32} {
		bx := inner.Min.X + (n-1)*bandW
		g.drawText(screen, fmt.Sprintf("%d", n), bx, inner.Max.Y+6)
	}
}

func (g *game) paintHarmonic(mx, my int, rect image.Rectangle) {
	inner := harmonicsInner(rect)
	bandW := inner.Dx() / sliderCount
	if bandW <= 0 || inner.Dy() <= 0 {
		return
	}
	band := (mx - inner.Min.X) / bandW
	if band < 0 || band >= sliderCount {
		return
	}
	amp := 1 - clamp(float64(my-inner.Min.Y)/float64(inner.Dy()), 0, 1)
	g.player.SetHarmonicAmplitude(band, amp)
	g.setStatus(fmt.Sprintf("Harmonic %d: %.2f", band+1, amp))
}

// drawWaveform sums the live spectrum over one fundamental cycle; what the
// oscillators will produce, drawn directly from the harmonic table.
func (g *game) drawWaveform(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width := inner.Dx()
	height := inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	if g.waveImg == nil || g.waveW != width || g.waveH != height {
		g.waveW = width
		g.waveH = height
		g.waveImg = ebiten.NewImage(width, height)
	}
	g.waveImg.Fill(color.RGBA{14, 16, 22, 255})

	midY := height / 2
	ebitenutil.DrawRect(g.waveImg, 0, float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	type partial struct {
		order float64
		amp   float64
		phase float64
	}
	partials := make([]partial, 0, 16)
	for i := 0; i < addsynth.NumHarmonics; i++ {
		amp, phase := g.player.Harmonic(i)
		if amp == 0 {
			continue
		}
		partials = append(partials, partial{order: float64(i + 1), amp: amp, phase: phase})
	}

	samples := make([]float64, width)
	peak := 0.0
	for x := 0; x < width; x++ {
		t := 2 * math.Pi * float64(x) / float64(width)
		sum := 0.0
		for _, p := range partials {
			sum += p.amp * math.Sin(t*p.order+p.phase)
		}
		samples[x] = sum
		if a := math.Abs(sum); a > peak {
			peak = a
		}
	}
	if peak < 1e-6 {
		return
	}
	gain := float64(midY-2) / peak

	prevY := midY - int(samples[0]*gain)
	for x := 1; x < width; x++ {
		y := midY - int(samples[x]*gain)
		ebitenutil.DrawLine(g.waveImg, float64(x-1), float64(prevY), float64(x), float64(y), waveColor)
		prevY = y
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(inner.Min.X), float64(inner.Min.Y))
	screen.DrawImage(g.waveImg, op)
}

func adsrInner(rect image.Rectangle) image.Rectangle {
	return image.Rect(rect.Min.X+8, rect.Min.Y+12+lineH, rect.Max.X-8, rect.Max.Y-12-lineH)
}

func (g *game) drawADSR(screen *ebiten.Image, rect image.Rectangle) {
	g.drawText(screen, "Envelope", rect.Min.X+8, rect.Min.Y+6)
	inner := adsrInner(rect)
	bandW := inner.Dx() / 4
	if bandW < 10 || inner.Dy() < 8 {
		return
	}
	for i := 0; i < 4; i++ {
		bx := inner.Min.X + i*bandW
		bh := inner.Dy()

		ebitenutil.DrawRect(screen, float64(bx+bandW/2-2), float64(inner.Min.Y), 4, float64(bh), bevelDarker)

		frac := clamp((g.adsr[i]-adsrMin[i])/(adsrMax[i]-adsrMin[i]), 0, 1)
		knobY := inner.Min.Y + bh - int(frac*float64(bh)) - 4
		knobRect := image.Rect(bx+4, knobY, bx+bandW-4, knobY+8)
		ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
		drawBorder(screen, knobRect)

		g.drawText(screen, adsrLabels[i], bx+bandW/2-charW/2, inner.Max.Y+6)
	}
}

func (g *game) adsrFromMouse(mx int, rect image.Rectangle) int {
	inner := adsrInner(rect)
	bandW := inner.Dx() / 4
	if bandW <= 0 {
		return -1
	}
	idx := (mx - inner.Min.X) / bandW
	if idx < 0 || idx >= 4 {
		return -1
	}
	return idx
}

func (g *game) dragADSR(my int, rect image.Rectangle) {
	seg := g.draggingADSR
	if seg < 0 || seg >= 4 {
		return
	}
	inner := adsrInner(rect)
	if inner.Dy() <= 0 {
		return
	}
	frac := 1 - clamp(float64(my-inner.Min.Y)/float64(inner.Dy()), 0, 1)
	g.adsr[seg] = adsrMin[seg] + frac*(adsrMax[seg]-adsrMin[seg])
	if err := g.player.SetEnvelope(g.adsr[0], g.adsr[1], g.adsr[2], g.adsr[3]); err != nil {
		g.setError(err.Error())
		return
	}
	if seg == 2 {
		g.setStatus(fmt.Sprintf("Sustain: %.2f", g.adsr[seg]))
	} else {
		g.setStatus(fmt.Sprintf("%s: %.3fs", adsrLabels[seg], g.adsr[seg]))
	}
}

func (g *game) drawStatus(screen *ebiten.Image, rect image.Rectangle) {
	msg := "Status: " + g.status
	if g.statusErr {
		msg = "Status: ERROR - " + g.status
	}
	maxChars := max(8, (rect.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), rect.Min.X+8, rect.Min.Y+6)
}

func (g *game) drawHSlider(screen *ebiten.Image, rect image.Rectangle, label string, frac float64) {
	g.drawPanel(screen, rect)
	g.drawText(screen, label, rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	// Sunken track groove.
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	// Fill.
	fillW := int(float64(trackW) * clamp(frac, 0, 1))
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	// Raised knob.
	knobX := trackX + fillW - 5
	if knobX < trackX-5 {
		knobX = trackX - 5
	}
	if knobX > trackX+trackW-5 {
		knobX = trackX + trackW - 5
	}
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func sliderFracFromMouse(mx int, rect image.Rectangle) float64 {
	trackX := rect.Min.X + 130
	trackW := rect.Dx() - 146
	if trackW <= 0 {
		return 0
	}
	return clamp(float64(mx-trackX)/float64(trackW), 0, 1)
}

func (g *game) updateVolumeFromMouse(mx int, rect image.Rectangle) {
	v := sliderFracFromMouse(mx, rect)
	g.volume = v
	g.player.SetMasterVolume(v)
	g.setStatus(fmt.Sprintf("Volume: %d%%", int(v*100+0.5)))
}

func (g *game) updateMorphFromMouse(mx int, rect image.Rectangle) {
	v := sliderFracFromMouse(mx, rect)
	g.morph = v
	g.player.SetMorphAmount(v)
	g.setStatus(fmt.Sprintf("Morph: %d%%", int(v*100+0.5)))
}

func (g *game) setError(msg string) {
	g.status = msg
	g.statusErr = true
}

func (g *game) setStatus(msg string) {
	g.status = msg
	g.statusErr = false
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.RGBA{0, 0, 0, 255})
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string, fill color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), fill)
	drawBorder(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised 3D bevel (highlight top/left, shadow bottom/right).
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	// Outer highlight: top and left.
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	// Outer shadow: bottom and right.
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	// Inner shadow: bottom and right.
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken 3D bevel (shadow top/left, highlight bottom/right).
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	// Outer shadow: top and left.
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	// Outer highlight: bottom and right.
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	// Inner shadow: top and left.
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 3000 {
			g.textCache = make(map[string]*ebiten.Image, 1024)
		}
		g.textCache[msg] = img
	}
	// Embossed shadow (dark offset behind text).
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	// Main text (white).
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	g, err := newGame()
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("addsynth-go editor")
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
