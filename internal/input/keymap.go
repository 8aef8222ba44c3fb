package input

// Key codes from linux/input-event-codes.h for the keys an HID reader can
// type. Kept here rather than pulled from the evdev package so the scanner
// and its tests build without a device backend.
const (
	KeyEsc     Code = 1
	Key1       Code = 2
	Key2       Code = 3
	Key3       Code = 4
	Key4       Code = 5
	Key5       Code = 6
	Key6       Code = 7
	Key7       Code = 8
	Key8       Code = 9
	Key9       Code = 10
	Key0       Code = 11
	KeyMinus   Code = 12
	KeyEnter   Code = 28
	KeyQ       Code = 16
	KeyW       Code = 17
	KeyE       Code = 18
	KeyR       Code = 19
	KeyT       Code = 20
	KeyY       Code = 21
	KeyU       Code = 22
	KeyI       Code = 23
	KeyO       Code = 24
	KeyP       Code = 25
	KeyA       Code = 30
	KeyS       Code = 31
	KeyD       Code = 32
	KeyF       Code = 33
	KeyG       Code = 34
	KeyH       Code = 35
	KeyJ       Code = 36
	KeyK       Code = 37
	KeyL       Code = 38
	KeyZ       Code = 44
	KeyX       Code = 45
	KeyC       Code = 46
	KeyV       Code = 47
	KeyB       Code = 48
	KeyN       Code = 49
	KeyM       Code = 50
	KeyKPEnter Code = 96
	KeyKP7     Code = 71
	KeyKP8     Code = 72
	KeyKP9     Code = 73
	KeyKP4     Code = 75
	KeyKP5     Code = 76
	KeyKP6     Code = 77
	KeyKP1     Code = 79
	KeyKP2     Code = 80
	KeyKP3     Code = 81
	KeyKP0     Code = 82
)

// characters maps key codes to the characters a keyboard-mode reader types.
// RFID readers emit digits only; barcode readers also emit letters and '-'.
var characters = map[Code]rune{
	Key0: '0', Key1: '1', Key2: '2', Key3: '3', Key4: '4',
	Key5: '5', Key6: '6', Key7: '7', Key8: '8', Key9: '9',
	KeyKP0: '0', KeyKP1: '1', KeyKP2: '2', KeyKP3: '3', KeyKP4: '4',
	KeyKP5: '5', KeyKP6: '6', KeyKP7: '7', KeyKP8: '8', KeyKP9: '9',
	KeyMinus: '-',
	KeyQ:     'Q', KeyW: 'W', KeyE: 'E', KeyR: 'R', KeyT: 'T',
	KeyY: 'Y', KeyU: 'U', KeyI: 'I', KeyO: 'O', KeyP: 'P',
	KeyA: 'A', KeyS: 'S', KeyD: 'D', KeyF: 'F', KeyG: 'G',
	KeyH: 'H', KeyJ: 'J', KeyK: 'K', KeyL: 'L',
	KeyZ: 'Z', KeyX: 'X', KeyC: 'C', KeyV: 'V', KeyB: 'B',
	KeyN: 'N', KeyM: 'M',
}

// CharFor returns the character a key types, if any.
func CharFor(code Code) (rune, bool) {
	r, ok := characters[code]
	return r, ok
}

// IsEnter reports whether the key terminates a scan.
func IsEnter(code Code) bool {
	return code == KeyEnter || code == KeyKPEnter
}
