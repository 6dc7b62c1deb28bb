package input

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a glfw key code.
type Key int

const KEY_UNKNOWN Key = -1

const (
	KEY_SPACE         Key = 32
	KEY_APOSTROPHE    Key = 39
	KEY_COMMA         Key = 44
	KEY_MINUS         Key = 45
	KEY_PERIOD        Key = 46
	KEY_SLASH         Key = 47
	KEY_0             Key = 48
	KEY_1             Key = 49
	KEY_2             Key = 50
	KEY_3             Key = 51
	KEY_4             Key = 52
	KEY_5             Key = 53
	KEY_6             Key = 54
	KEY_7             Key = 55
	KEY_8             Key = 56
	KEY_9             Key = 57
	KEY_SEMICOLON     Key = 59
	KEY_EQUAL         Key = 61
	KEY_A             Key = 65
	KEY_B             Key = 66
	KEY_C             Key = 67
	KEY_D             Key = 68
	KEY_E             Key = 69
	KEY_F             Key = 70
	KEY_G             Key = 71
	KEY_H             Key = 72
	KEY_I             Key = 73
	KEY_J             Key = 74
	KEY_K             Key = 75
	KEY_L             Key = 76
	KEY_M             Key = 77
	KEY_N             Key = 78
	KEY_O             Key = 79
	KEY_P             Key = 80
	KEY_Q             Key = 81
	KEY_R             Key = 82
	KEY_S             Key = 83
	KEY_T             Key = 84
	KEY_U             Key = 85
	KEY_V             Key = 86
	KEY_W             Key = 87
	KEY_X             Key = 88
	KEY_Y             Key = 89
	KEY_Z             Key = 90
	KEY_LEFT_BRACKET  Key = 91
	KEY_BACKSLASH     Key = 92
	KEY_RIGHT_BRACKET Key = 93
	KEY_GRAVE         Key = 96
	KEY_ESCAPE        Key = 256
	KEY_ENTER         Key = 257
	KEY_TAB           Key = 258
	KEY_BACKSPACE     Key = 259
	KEY_INSERT        Key = 260
	KEY_DELETE        Key = 261
	KEY_RIGHT         Key = 262
	KEY_LEFT          Key = 263
	KEY_DOWN          Key = 264
	KEY_UP            Key = 265
	KEY_PAGE_UP       Key = 266
	KEY_PAGE_DOWN     Key = 267
	KEY_HOME          Key = 268
	KEY_END           Key = 269
	KEY_CAPS_LOCK     Key = 280
	KEY_SCROLL_LOCK   Key = 281
	KEY_NUM_LOCK      Key = 282
	KEY_PRINT_SCREEN  Key = 283
	KEY_PAUSE         Key = 284
	KEY_F1            Key = 290
	KEY_F2            Key = 291
	KEY_F3            Key = 292
	KEY_F4            Key = 293
	KEY_F5            Key = 294
	KEY_F6            Key = 295
	KEY_F7            Key = 296
	KEY_F8            Key = 297
	KEY_F9            Key = 298
	KEY_F10           Key = 299
	KEY_F11           Key = 300
	KEY_F12           Key = 301
	KEY_NUMPAD0       Key = 320
	KEY_NUMPAD1       Key = 321
	KEY_NUMPAD2       Key = 322
	KEY_NUMPAD3       Key = 323
	KEY_NUMPAD4       Key = 324
	KEY_NUMPAD5       Key = 325
	KEY_NUMPAD6       Key = 326
	KEY_NUMPAD7       Key = 327
	KEY_NUMPAD8       Key = 328
	KEY_NUMPAD9       Key = 329
	KEY_DECIMAL       Key = 330
	KEY_DIVIDE        Key = 331
	KEY_MULTIPLY      Key = 332
	KEY_SUBTRACT      Key = 333
	KEY_ADD           Key = 334
	KEY_NUMPAD_ENTER  Key = 335
	KEY_NUMPAD_EQUAL  Key = 336
	KEY_LEFT_SHIFT    Key = 340
	KEY_LEFT_CONTROL  Key = 341
	KEY_LEFT_ALT      Key = 342
	KEY_LEFT_SUPER    Key = 343
	KEY_RIGHT_SHIFT   Key = 344
	KEY_RIGHT_CONTROL Key = 345
	KEY_RIGHT_ALT     Key = 346
	KEY_RIGHT_SUPER   Key = 347
	KEY_MENU          Key = 348
	KEYS_MAX_KEYS     Key = 349
)

var keyNames = map[string]Key{
	"SPACE":         KEY_SPACE,
	"APOSTROPHE":    KEY_APOSTROPHE,
	"COMMA":         KEY_COMMA,
	"MINUS":         KEY_MINUS,
	"PERIOD":        KEY_PERIOD,
	"SLASH":         KEY_SLASH,
	"SEMICOLON":     KEY_SEMICOLON,
	"EQUAL":         KEY_EQUAL,
	"LEFT_BRACKET":  KEY_LEFT_BRACKET,
	"BACKSLASH":     KEY_BACKSLASH,
	"RIGHT_BRACKET": KEY_RIGHT_BRACKET,
	"GRAVE":         KEY_GRAVE,
	"ESCAPE":        KEY_ESCAPE,
	"ENTER":         KEY_ENTER,
	"TAB":           KEY_TAB,
	"BACKSPACE":     KEY_BACKSPACE,
	"INSERT":        KEY_INSERT,
	"DELETE":        KEY_DELETE,
	"RIGHT":         KEY_RIGHT,
	"LEFT":          KEY_LEFT,
	"DOWN":          KEY_DOWN,
	"UP":            KEY_UP,
	"PAGE_UP":       KEY_PAGE_UP,
	"PAGE_DOWN":     KEY_PAGE_DOWN,
	"HOME":          KEY_HOME,
	"END":           KEY_END,
	"CAPS_LOCK":     KEY_CAPS_LOCK,
	"SCROLL_LOCK":   KEY_SCROLL_LOCK,
	"NUM_LOCK":      KEY_NUM_LOCK,
	"PRINT_SCREEN":  KEY_PRINT_SCREEN,
	"PAUSE":         KEY_PAUSE,
	"DECIMAL":       KEY_DECIMAL,
	"DIVIDE":        KEY_DIVIDE,
	"MULTIPLY":      KEY_MULTIPLY,
	"SUBTRACT":      KEY_SUBTRACT,
	"ADD":           KEY_ADD,
	"NUMPAD_ENTER":  KEY_NUMPAD_ENTER,
	"NUMPAD_EQUAL":  KEY_NUMPAD_EQUAL,
	"LEFT_SHIFT":    KEY_LEFT_SHIFT,
	"LEFT_CONTROL":  KEY_LEFT_CONTROL,
	"LEFT_ALT":      KEY_LEFT_ALT,
	"LEFT_SUPER":    KEY_LEFT_SUPER,
	"RIGHT_SHIFT":   KEY_RIGHT_SHIFT,
	"RIGHT_CONTROL": KEY_RIGHT_CONTROL,
	"RIGHT_ALT":     KEY_RIGHT_ALT,
	"RIGHT_SUPER":   KEY_RIGHT_SUPER,
	"MENU":          KEY_MENU,
}

var keyStrings = make(map[Key]string, len(keyNames))

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keyNames[string(c)] = KEY_A + Key(c-'A')
	}
	for d := '0'; d <= '9'; d++ {
		keyNames[string(d)] = KEY_0 + Key(d-'0')
		keyNames["NUMPAD"+string(d)] = KEY_NUMPAD0 + Key(d-'0')
	}
	for i := 1; i <= 12; i++ {
		keyNames["F"+strconv.Itoa(i)] = KEY_F1 + Key(i-1)
	}
	for name, key := range keyNames {
		keyStrings[key] = name
	}
	// Bare digits parse as numeric codes.
	for d := '0'; d <= '9'; d++ {
		keyStrings[KEY_0+Key(d-'0')] = "KEY_" + string(d)
	}
}

// ParseKey accepts a key name such as "W", "left_shift" or "KEY_1", or a
// numeric glfw code.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if code, err := strconv.Atoi(s); err == nil {
		if code < 0 || Key(code) >= KEYS_MAX_KEYS {
			return KEY_UNKNOWN, fmt.Errorf("key code %d out of range", code)
		}
		return Key(code), nil
	}
	name := strings.TrimPrefix(strings.ToUpper(s), "KEY_")
	if k, ok := keyNames[name]; ok {
		return k, nil
	}
	return KEY_UNKNOWN, fmt.Errorf("unknown key %q", s)
}

// String returns the key name, or the numeric code for unnamed keys.
func (k Key) String() string {
	if name, ok := keyStrings[k]; ok {
		return name
	}
	return strconv.Itoa(int(k))
}
