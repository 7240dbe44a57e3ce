package models

const (
	// DefaultFlightsFile путь к таблице рейсов по умолчанию
	DefaultFlightsFile = "data/flights.csv"

	// DefaultPassengersFile путь к таблице пассажиров по умолчанию
	DefaultPassengersFile = "data/passengers.csv"

	// DefaultBookingsFile путь к журналу бронирований по умолчанию
	DefaultBookingsFile = "data/bookings.csv"

	// DefaultAuditFile путь к журналу изменений по умолчанию
	DefaultAuditFile = "data/updateLog.csv"

	// DefaultExportPath папка для выгрузок xlsx
	DefaultExportPath = "exports"

	// DefaultTransactionsStream имя Redis stream для уведомлений о транзакциях
	DefaultTransactionsStream = "flightbook:transactions"

	// DefaultBackupInterval период резервного копирования
	DefaultBackupInterval = "24h"
)
