// Package store persists tenant ledgers and audit snapshots in SQLite.
package store

// Schema defines the SQL statements to create database tables.
// Amounts are stored as decimal strings, dates as YYYY-MM-DD.
const Schema = `
-- Outgoing invoices
CREATE TABLE IF NOT EXISTS invoices (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    invoice_number TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,              -- draft, sent, paid, partial, overdue, cancelled
    issue_date TEXT NOT NULL,
    due_date TEXT NOT NULL,
    subtotal TEXT NOT NULL DEFAULT '0',
    vat_amount TEXT NOT NULL DEFAULT '0',
    total TEXT NOT NULL DEFAULT '0',
    amount_paid TEXT NOT NULL DEFAULT '0',
    vat_type TEXT NOT NULL DEFAULT '',
    customer_name TEXT NOT NULL DEFAULT '',
    customer_country TEXT NOT NULL DEFAULT '',
    customer_vat_number TEXT NOT NULL DEFAULT '',
    customer_is_business INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_invoices_tenant_issue
    ON invoices(tenant_id, issue_date);

CREATE INDEX IF NOT EXISTS idx_invoices_tenant_status
    ON invoices(tenant_id, status);

-- Expenses
CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    expense_date TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL DEFAULT '0',
    vat_amount TEXT NOT NULL DEFAULT '0',
    vat_type TEXT NOT NULL DEFAULT '',
    supplier_name TEXT NOT NULL DEFAULT '',
    supplier_country TEXT NOT NULL DEFAULT '',
    supplier_vat_number TEXT NOT NULL DEFAULT '',
    supplier_is_business INTEGER NOT NULL DEFAULT 1,
    business_percentage TEXT,          -- NULL when not recorded
    is_deductible INTEGER NOT NULL DEFAULT 1,
    is_representation INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_expenses_tenant_date
    ON expenses(tenant_id, expense_date);

-- Recurring expense templates
CREATE TABLE IF NOT EXISTS recurring_expenses (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    amount TEXT NOT NULL DEFAULT '0',
    vat_amount TEXT NOT NULL DEFAULT '0',
    frequency TEXT NOT NULL,           -- weekly, monthly, quarterly, yearly
    start_date TEXT NOT NULL,
    end_date TEXT,
    is_active INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_recurring_tenant
    ON recurring_expenses(tenant_id);

-- Time tracking
CREATE TABLE IF NOT EXISTS time_entries (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    hours TEXT NOT NULL DEFAULT '0',
    hourly_rate TEXT NOT NULL DEFAULT '0',
    billable INTEGER NOT NULL DEFAULT 1,
    invoiced INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_time_entries_tenant
    ON time_entries(tenant_id, invoiced);

-- Current bank balance per tenant
CREATE TABLE IF NOT EXISTS account_balances (
    tenant_id TEXT PRIMARY KEY,
    balance TEXT NOT NULL DEFAULT '0',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Immutable audit snapshots of generated reports
CREATE TABLE IF NOT EXISTS financial_reports (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    report_type TEXT NOT NULL,         -- vat_return
    period_key TEXT NOT NULL,          -- e.g. 2024-Q1
    checksum TEXT NOT NULL,            -- sha256 of payload
    payload TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(tenant_id, report_type, period_key, checksum)
);

CREATE INDEX IF NOT EXISTS idx_financial_reports_tenant
    ON financial_reports(tenant_id, report_type, period_key);

CREATE TRIGGER IF NOT EXISTS financial_reports_no_update
BEFORE UPDATE ON financial_reports
BEGIN
    SELECT RAISE(ABORT, 'financial_reports are write-once');
END;
`
