package capability

import "micros-shell/internal/adapter/secondary/hardware"

// LEDModule exposes the status LED as the "led" module.
func LEDModule(led *hardware.StatusLED) Module {
	state := func([]string) (string, error) {
		if led.Lit() {
			return "on", nil
		}
		return "off", nil
	}
	return Module{
		Name: "led",
		Functions: []Function{
			{Name: "toggle", Call: func(a []string) (string, error) { led.Toggle(); return state(a) }},
			{Name: "on", Call: func(a []string) (string, error) { led.On(); return state(a) }},
			{Name: "off", Call: func(a []string) (string, error) { led.Off(); return state(a) }},
			{Name: "state", Call: state},
		},
	}
}
