package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GPIODriver はsysfs GPIO経由でリレーピンを駆動するDriver実装。
// ベルコントローラのリレーモジュールはGPIO5（ファームウェア時代のRELAY_PIN）に接続されている想定だが、
// ピン番号は設定で変更できる。
type GPIODriver struct {
	pin       int
	valuePath string
}

// sysfsRoot はテストで差し替えるためのフック。
var sysfsRoot = "/sys/class/gpio"

// NewGPIODriver は指定ピンをexportし、出力方向に初期化したGPIODriverを返す。
// すでにexport済みの場合はそのまま利用する。
func NewGPIODriver(pin int) (*GPIODriver, error) {
	pinDir := filepath.Join(sysfsRoot, fmt.Sprintf("gpio%d", pin))

	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		if err := os.WriteFile(filepath.Join(sysfsRoot, "export"), []byte(strconv.Itoa(pin)), 0o644); err != nil {
			return nil, fmt.Errorf("failed to export gpio%d: %w", pin, err)
		}
		// export直後はカーネルがファイルを用意するまでわずかに待つ必要がある
		time.Sleep(100 * time.Millisecond)
	}

	if err := os.WriteFile(filepath.Join(pinDir, "direction"), []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to set gpio%d direction: %w", pin, err)
	}

	d := &GPIODriver{
		pin:       pin,
		valuePath: filepath.Join(pinDir, "value"),
	}

	// 起動時は必ず開放状態にする
	if err := d.Set(false); err != nil {
		return nil, err
	}

	return d, nil
}

// Set はリレーの開閉状態を設定する。
func (d *GPIODriver) Set(on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	if err := os.WriteFile(d.valuePath, []byte(v), 0o644); err != nil {
		return fmt.Errorf("failed to write gpio%d value: %w", d.pin, err)
	}
	return nil
}

// compile-time interface check
var _ Driver = (*GPIODriver)(nil)
