// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

// Field titles (as configured in the CRM, in Romanian, Russian and English)
// used to locate fields whose keys differ between pipelines.
var (
	YearTitles         = []string{"Anul producerii", "Год выпуска", "Year"}
	PlateTitles        = []string{"Numar Auto", "Номер авто", "Car number", "Numar auto"}
	BodyTitles         = []string{"Caroserie", "Тип кузова", "Body type"}
	FuelTitles         = []string{"Tipul de combustibil", "Тип топлива", "Fuel type"}
	EngineTitles       = []string{"Volumul motorului", "Объем двигателя", "Engine volume"}
	DriveTitles        = []string{"Tracţiune", "Tracțiune", "Привод", "Drive"}
	TransmissionTitles = []string{"Transmisie", "Cutie", "Кпп", "КПП", "Transmission", "Gearbox"}
)

// yearTitleStems match year fields whose title is phrased differently.
var yearTitleStems = []string{"anul", "год", "year", "producerii", "выпуска"}

// yearScanExcluded are never scanned for a year: they hold numbers that
// look like years (prices, ids, timestamps).
var yearScanExcluded = []string{
	"id", "createdTime", "updatedTime", "movedTime", "lastActivityTime",
	"createdBy", "updatedBy", "movedBy", "assignedById", "lastActivityBy",
	"categoryId", "stageId", "entityTypeId",
}
