package registry

import "github.com/saptiva-ai/bankcopilot/internal/types"

// builtinDescriptors seeds the default registry. Aliases are grounded
// verbatim in query_spec_parser.py's METRIC_MAP; semantic type and
// better-direction are a supplemental annotation layer: ratio
// metrics are lower-is-better except ICAP, ROA_12M and ROE_12M;
// MARKET_SHARE is a higher-is-better percentage and the TASA_* rates
// are neutral.
func builtinDescriptors() []MetricDescriptor {
	return []MetricDescriptor{
		{
			Name: "IMOR", Column: "imor", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "Índice de Morosidad",
			Aliases:   []string{"imor_cuadro", "morosidad"},
		},
		{
			Name: "ICOR", Column: "icor", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "Índice de Cobertura",
			Aliases:   []string{"icor_cuadro", "cobertura"},
		},
		{
			Name: "CARTERA_TOTAL", Column: "cartera_total", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Total",
			Aliases:   []string{"cartera_total", "cartera total", "cartera"},
		},
		{
			Name: "CARTERA_COMERCIAL", Column: "cartera_comercial", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Comercial",
			Aliases:   []string{"cartera_comercial", "cartera comercial", "comercial", "cartera comercial sin gobierno"},
		},
		{
			Name: "CARTERA_CONSUMO", Column: "cartera_consumo", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera de Consumo",
			Aliases: []string{
				"cartera_consumo", "cartera consumo", "cartera de consumo",
				"cartera de crédito de consumo", "cartera de credito de consumo",
				"crédito de consumo", "credito de consumo",
			},
		},
		{
			Name: "CARTERA_VIVIENDA", Column: "cartera_vivienda", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera de Vivienda",
			Aliases:   []string{"cartera_vivienda", "cartera vivienda"},
		},
		{
			Name: "CARTERA_VENCIDA", Column: "cartera_vencida", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterLower,
			Formatter: "Cartera Vencida",
			Aliases:   []string{"cartera_vencida", "cartera vencida"},
		},
		{
			Name: "RESERVAS", Column: "reservas", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Reservas",
			Aliases:   []string{"reservas", "reservas totales", "variación de reservas", "variacion de reservas"},
		},
		{
			Name: "ICAP", Column: "icap_total", SemanticType: types.SemanticRatio, BetterDirection: types.BetterHigher,
			Formatter: "Índice de Capitalización",
			Aliases:   []string{"icap", "icap_cuadro", "icap_total", "capitalizacion", "capitalización"},
		},
		{
			Name: "TDA", Column: "tda", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "Tasa de Deterioro Ajustada",
			Aliases:   []string{"tda", "tda_cuadro", "deterioro", "tasa de deterioro", "tasa deterioro ajustada"},
		},
		{
			Name: "ETAPAS_DETERIORO", Column: "etapas_deterioro", SemanticType: types.SemanticCount, BetterDirection: types.BetterNeutral,
			Formatter: "Etapas de Deterioro (IFRS9)",
			Aliases:   []string{"etapas de deterioro", "etapas deterioro"},
		},
		{
			Name: "PE_TOTAL", Column: "pe_total", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterLower,
			Formatter: "Pérdida Esperada",
			Aliases:   []string{"pérdida esperada", "perdida esperada", "pe_total", "pe total"},
		},
		{
			Name: "QUEBRANTOS", Column: "quebrantos", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterLower,
			Formatter: "Quebrantos",
			Aliases:   []string{"quebrantos", "quebrantos comerciales"},
		},
		{
			Name: "TASA_MN", Column: "tasa_mn", SemanticType: types.SemanticPercentage, BetterDirection: types.BetterNeutral,
			Formatter: "Tasa Corporativa Moneda Nacional",
			Aliases: []string{
				"tasa_mn", "tasa mn", "tasa moneda nacional", "tasa corporativa mn",
				"tasa corporativa moneda nacional", "credito corporativo mn",
			},
		},
		{
			Name: "TASA_ME", Column: "tasa_me", SemanticType: types.SemanticPercentage, BetterDirection: types.BetterNeutral,
			Formatter: "Tasa Corporativa Moneda Extranjera",
			Aliases: []string{
				"tasa_me", "tasa me", "tasa moneda extranjera", "tasa corporativa me",
				"tasa corporativa moneda extranjera", "credito corporativo me",
			},
		},
		{
			Name: "TASA_SISTEMA", Column: "tasa_sistema", SemanticType: types.SemanticPercentage, BetterDirection: types.BetterNeutral,
			Formatter: "Tasa Efectiva del Sistema",
			Aliases: []string{
				"tasa_sistema", "tasa sistema", "tasa efectiva", "tasa efectiva sistema",
				"tasa interés efectiva", "tasa interes efectiva",
			},
		},
		{
			Name: "TASA_INVEX_CONSUMO", Column: "tasa_invex_consumo", SemanticType: types.SemanticPercentage, BetterDirection: types.BetterNeutral,
			Formatter: "Tasa Efectiva INVEX Consumo",
			Aliases:   []string{"tasa_invex_consumo", "tasa invex consumo", "tasa invex", "tasa efectiva invex"},
		},
		{
			Name: "MARKET_SHARE", Column: "market_share", SemanticType: types.SemanticPercentage, BetterDirection: types.BetterHigher,
			Formatter: "Participación de Mercado",
			Aliases:   []string{"market share", "participación de mercado", "participacion de mercado", "pdm", "cuota de mercado"},
		},
		{
			Name: "ACTIVO_TOTAL", Column: "activo_total", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Activos Totales",
			Aliases: []string{
				"activos totales", "activo total", "tamaño de bancos", "tamaño de los bancos",
				"tamaño de los bancos por activos", "tamaño por activos", "ranking de bancos", "ranking por activos",
			},
		},
		{
			Name: "CARTERA_AUTOMOTRIZ", Column: "cartera_automotriz", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Automotriz",
			Aliases:   []string{"cartera automotriz", "credito automotriz", "automotriz", "autos"},
		},
		{
			Name: "CARTERA_NOMINA", Column: "cartera_nomina", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Nómina",
			Aliases:   []string{"cartera nomina", "credito nomina", "nómina", "nomina"},
		},
		{
			Name: "CARTERA_TDC", Column: "cartera_tdc", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Tarjeta de Crédito",
			Aliases:   []string{"tarjeta de credito", "tarjeta credito", "tdc"},
		},
		{
			Name: "CARTERA_PERSONALES", Column: "cartera_personales", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Cartera Préstamos Personales",
			Aliases:   []string{"prestamos personales", "préstamos personales", "personales"},
		},
		{
			Name: "IMOR_AUTOMOTRIZ", Column: "imor_automotriz", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "IMOR Automotriz",
			Aliases:   []string{"imor automotriz", "morosidad automotriz"},
		},
		{
			Name: "IMOR_NOMINA", Column: "imor_nomina", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "IMOR Nómina",
			Aliases:   []string{"imor nomina"},
		},
		{
			Name: "IMOR_TDC", Column: "imor_tdc", SemanticType: types.SemanticRatio, BetterDirection: types.BetterLower,
			Formatter: "IMOR Tarjeta de Crédito",
			Aliases:   []string{"imor tarjeta"},
		},
		// BE_BM balance-sheet/income-statement figures, served from
		// metricas_financieras_ext rather than monthly_kpis; Column
		// here names that table's column, not a monthly_kpis one, and
		// is only ever consulted by GetFinancialMetricData's dispatch,
		// never SafeColumn'd into a monthly_kpis query.
		{
			Name: "INVERSIONES_FINANCIERAS", Column: "inversiones_financieras", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Inversiones Financieras",
			Aliases:   []string{"inversiones financieras", "inversiones"},
		},
		{
			Name: "CAPTACION_TOTAL", Column: "captacion_total", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Captación Total",
			Aliases:   []string{"captación total", "captacion total", "captación", "captacion"},
		},
		{
			Name: "CAPITAL_CONTABLE", Column: "capital_contable", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Capital Contable",
			Aliases:   []string{"capital contable", "capital"},
		},
		{
			Name: "RESULTADO_NETO", Column: "resultado_neto", SemanticType: types.SemanticCurrencyMDP, BetterDirection: types.BetterHigher,
			Formatter: "Resultado Neto",
			Aliases:   []string{"resultado neto", "utilidad neta"},
		},
		{
			Name: "ROA_12M", Column: "roa_12m", SemanticType: types.SemanticRatio, BetterDirection: types.BetterHigher,
			Formatter: "ROA (12m)",
			Aliases:   []string{"roa", "roa_12m", "roa 12m", "retorno sobre activos"},
		},
		{
			Name: "ROE_12M", Column: "roe_12m", SemanticType: types.SemanticRatio, BetterDirection: types.BetterHigher,
			Formatter: "ROE (12m)",
			Aliases:   []string{"roe", "roe_12m", "roe 12m", "retorno sobre capital"},
		},
	}
}

// builtinBankAliases is grounded verbatim in
// query_spec_parser.py's BANK_ALIASES.
func builtinBankAliases() map[string]string {
	return map[string]string{
		"invex":            "INVEX",
		"banco invex":      "INVEX",
		"sistema":          "SISTEMA",
		"sistema bancario": "SISTEMA",
		"mercado":          "SISTEMA",
		"promedio":         "SISTEMA",
		"resto de bancos":  "SISTEMA",
		"otros bancos":     "SISTEMA",
		"banorte":          "BANORTE",
		"bbva":             "BBVA",
		"bbva bancomer":    "BBVA",
		"bancomer":         "BBVA",
		"santander":        "SANTANDER",
		"hsbc":             "HSBC",
		"citibanamex":      "CITIBANAMEX",
		"banamex":          "CITIBANAMEX",
		"scotiabank":       "SCOTIABANK",
		"inbursa":          "INBURSA",
	}
}
