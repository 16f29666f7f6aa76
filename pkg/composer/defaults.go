package composer

// Defaults the wizard pre-fills on a new report.
const (
	DefaultLabUnit                  = "Marine Calibrations & Metrology Unit"
	DefaultConductivityTestingLevel = "1"

	DefaultUncertainty = "Expanded Measurement Uncertainty (95% level of confidence; k = 2) for conductivity: " +
		"0.00033 S/m (Gerin and Savonitto, 2024)."

	DefaultFormulaText = "f = Inst Freq [kHz]\n" +
		"t = ITS-90 Temperature [°C]; p = pressure [decibars] = 0; α = CTcor; β = CPcor\n" +
		"Conductivity = (g + hf² + if³ + jf⁴) / [10(1 + αt + βp)] [S/m]"

	DefaultAccuracyNote = "§Accuracy declared by the Manufacturer = ±0.0003 S/m."

	DefaultTableLegend = "where:\n" +
		"Inst Temp = the temperature (°C, ITS-90) of the seawater filling the bath as read by the instrument's " +
		"temperature sensor at the reference set-point conductivity;\n" +
		"Reference = the set-point conductivity (S/m) of the bath seawater, measured using the laboratory salinometer;\n" +
		"Inst Freq = the instrument output frequency (Hz) at the reference set-point conductivity;\n" +
		"Predicted = the bath set-point conductivity (S/m), as computed by the instrument using the new " +
		"calibration coefficients;\n" +
		"Predicted-Reference = the conductivity residual (S/m), i.e. the difference between the \"Predicted\" " +
		"and \"Reference\" set-point conductivities"

	DefaultReferences = "Gerin R. and Savonitto G. (2024). Uncertainty estimate associated with the measurement of " +
		"ITS-90 temperature and conductivity at the Oceanographic Calibration and Metrology Center (CTMO) of " +
		"OGS Rel. OGS 2024, Trieste, Italy, 7 pp."
)
