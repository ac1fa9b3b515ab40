package repository

const createPaymentsTable = `
	CREATE TABLE IF NOT EXISTS payments (
		id                       VARCHAR(64) PRIMARY KEY,
		order_id                 VARCHAR(64) NOT NULL UNIQUE,
		customer_name            TEXT NOT NULL,
		customer_email           TEXT NOT NULL,
		customer_phone           TEXT,
		shipping_address         TEXT NOT NULL,
		shipping_city            TEXT NOT NULL,
		shipping_country         TEXT NOT NULL,
		shipping_zip             TEXT,
		payment_method           VARCHAR(16) NOT NULL,
		payment_status           VARCHAR(16) NOT NULL DEFAULT 'pending',
		stripe_payment_intent_id VARCHAR(255),
		amount                   NUMERIC(12, 2) NOT NULL,
		currency                 VARCHAR(8) NOT NULL DEFAULT 'usd',
		items                    JSONB NOT NULL DEFAULT '[]'::jsonb,
		metadata                 JSONB,
		created_at               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

var paymentIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_payments_created_at ON payments (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_customer_email ON payments (customer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (payment_status)`,
}

const createContactSubmissionsTable = `
	CREATE TABLE IF NOT EXISTS contact_submissions (
		id         VARCHAR(64) PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT,
		company    TEXT,
		subject    TEXT,
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const createQuotationRequestsTable = `
	CREATE TABLE IF NOT EXISTS quotation_requests (
		id              VARCHAR(64) PRIMARY KEY,
		name            TEXT NOT NULL,
		email           TEXT NOT NULL,
		phone           TEXT,
		company         TEXT NOT NULL,
		country         TEXT NOT NULL,
		coffee_type     TEXT NOT NULL,
		quantity        TEXT NOT NULL,
		delivery_terms  TEXT,
		washing_station TEXT,
		message         TEXT,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

var leadIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at ON contact_submissions (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_quotation_requests_created_at ON quotation_requests (created_at DESC)`,
}

const createNotificationsTable = `
	CREATE TABLE IF NOT EXISTS notifications (
		id           UUID PRIMARY KEY,
		kind         VARCHAR(64) NOT NULL,
		reference_id VARCHAR(64) NOT NULL,
		recipient    TEXT NOT NULL,
		subject      TEXT NOT NULL,
		status       VARCHAR(16) NOT NULL,
		error        TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sent_at      TIMESTAMPTZ
	)
`

var notificationIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_notifications_reference_id ON notifications (reference_id)`,
}
