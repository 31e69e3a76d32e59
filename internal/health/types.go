package health

// Status — итоговая оценка состояния накопителя
type Status string

const (
	StatusHealthy Status = "HEALTHY"
	StatusFailing Status = "FAILING"
	StatusUnknown Status = "UNKNOWN"
)

// HealthStatus — результат опроса одного накопителя. Отсутствие данных
// никогда не маскируется под Healthy: нет фактов — статус Unknown.
type HealthStatus struct {
	DeviceID     string   `json:"device_id"`
	Status       Status   `json:"status"`
	TemperatureC *int     `json:"temperature_c,omitempty"`
	PowerOnHours *int     `json:"power_on_hours,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}
