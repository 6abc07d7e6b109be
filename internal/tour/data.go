package tour

type Person struct {
	Name   string
	Age    int
	City   string
	Salary int
}

func People() []Person {
	return []Person{
		{Name: "Tanaka", Age: 25, City: "Tokyo", Salary: 350000},
		{Name: "Suzuki", Age: 30, City: "Osaka", Salary: 420000},
		{Name: "Sato", Age: 22, City: "Fukuoka", Salary: 280000},
		{Name: "Takahashi", Age: 28, City: "Sapporo", Salary: 390000},
		{Name: "Ito", Age: 33, City: "Nagoya", Salary: 450000},
	}
}

// Metric is a labelled value with a change indicator.
type Metric struct {
	Label string
	Value string
	Delta string
}

// Up reports whether the delta is non-negative.
func (m Metric) Up() bool {
	return len(m.Delta) == 0 || m.Delta[0] != '-'
}

func LayoutMetric() Metric {
	return Metric{Label: "Metric", Value: "42", Delta: "2%"}
}

func WeatherMetrics() []Metric {
	return []Metric{
		{Label: "Temperature", Value: "23°C", Delta: "1.5°C"},
		{Label: "Humidity", Value: "45%", Delta: "-5%"},
		{Label: "Pressure", Value: "1013hPa", Delta: "0.1hPa"},
		{Label: "Wind speed", Value: "5m/s", Delta: "-2m/s"},
	}
}
