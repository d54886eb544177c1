package schema

type table struct {
	name string
	ddl  string
}

// tables in creation order; later tables reference earlier ones.
var tables = []table{
	{"campuses", `
CREATE TABLE IF NOT EXISTS campuses (
    campus_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    director_id BIGINT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"colleges", `
CREATE TABLE IF NOT EXISTS colleges (
    college_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    campus_id BIGINT NOT NULL,
    dean_id BIGINT NULL,
    INDEX idx_colleges_campus (campus_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"departments", `
CREATE TABLE IF NOT EXISTS departments (
    department_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    college_id BIGINT NOT NULL,
    head_id BIGINT NULL,
    INDEX idx_departments_college (college_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"users", `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    username VARCHAR(150) NOT NULL UNIQUE,
    full_name VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    role VARCHAR(32) NOT NULL DEFAULT 'student',
    department_id BIGINT NULL,
    campus_id BIGINT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    INDEX idx_users_role (role, is_active)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"categories", `
CREATE TABLE IF NOT EXISTS categories (
    category_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"sub_categories", `
CREATE TABLE IF NOT EXISTS sub_categories (
    sub_category_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    category_id BIGINT NOT NULL,
    name VARCHAR(255) NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    INDEX idx_sub_categories_category (category_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"complaints", `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    tracking_id VARCHAR(32) NOT NULL UNIQUE,
    title VARCHAR(500) NOT NULL,
    description TEXT NOT NULL,
    category_id BIGINT NULL,
    sub_category_id BIGINT NULL,
    campus_id BIGINT NULL,
    department_id BIGINT NULL,
    location VARCHAR(500) NOT NULL DEFAULT '',
    status VARCHAR(32) NOT NULL DEFAULT 'new',
    priority VARCHAR(16) NOT NULL DEFAULT 'medium',
    urgency VARCHAR(16) NOT NULL DEFAULT 'medium',
    submitter_id BIGINT NULL,
    assigned_to_id BIGINT NULL,
    sla_response_hours INT NULL,
    sla_resolution_hours INT NULL,
    first_response_at DATETIME NULL,
    sla_response_breached BOOLEAN NOT NULL DEFAULT FALSE,
    sla_resolution_breached BOOLEAN NOT NULL DEFAULT FALSE,
    sla_breach_notified_at DATETIME NULL,
    escalated BOOLEAN NOT NULL DEFAULT FALSE,
    escalated_at DATETIME NULL,
    escalated_to_id BIGINT NULL,
    escalation_reason TEXT NULL,
    escalation_level INT NOT NULL DEFAULT 0,
    requires_approval BOOLEAN NOT NULL DEFAULT FALSE,
    approved_by_id BIGINT NULL,
    approved_at DATETIME NULL,
    approval_notes TEXT NULL,
    rejection_reason TEXT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NULL,
    assigned_at DATETIME NULL,
    in_progress_at DATETIME NULL,
    resolved_at DATETIME NULL,
    closed_at DATETIME NULL,
    INDEX idx_complaints_status (status),
    INDEX idx_complaints_department (department_id),
    INDEX idx_complaints_pending_approval (requires_approval, approved_by_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"complaint_events", `
CREATE TABLE IF NOT EXISTS complaint_events (
    event_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    event_type VARCHAR(32) NOT NULL,
    actor_id BIGINT NULL,
    old_value VARCHAR(255) NOT NULL DEFAULT '',
    new_value VARCHAR(255) NOT NULL DEFAULT '',
    notes TEXT NULL,
    metadata JSON NULL,
    created_at DATETIME NOT NULL,
    INDEX idx_complaint_events_complaint (complaint_id, event_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"routing_rules", `
CREATE TABLE IF NOT EXISTS routing_rules (
    rule_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    description TEXT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    priority INT NOT NULL DEFAULT 0,
    category_id BIGINT NULL,
    sub_category_id BIGINT NULL,
    campus_id BIGINT NULL,
    assign_department_id BIGINT NULL,
    assign_user_id BIGINT NULL,
    set_priority VARCHAR(16) NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"sla_configurations", `
CREATE TABLE IF NOT EXISTS sla_configurations (
    config_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL,
    priority VARCHAR(16) NOT NULL,
    category_id BIGINT NULL,
    campus_id BIGINT NULL,
    response_time_hours INT NOT NULL,
    resolution_time_hours INT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_sla_scope (priority, category_id, campus_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},

	{"notification_log", `
CREATE TABLE IF NOT EXISTS notification_log (
    id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    event_kind VARCHAR(32) NOT NULL,
    recipient VARCHAR(255) NOT NULL,
    subject VARCHAR(500) NOT NULL,
    body TEXT NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    error_message TEXT NULL,
    created_at DATETIME NOT NULL,
    INDEX idx_notification_log_complaint (complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}
